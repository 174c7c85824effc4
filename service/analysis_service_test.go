package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cflow-tools/cflow/domain"
	"github.com/cflow-tools/cflow/internal/config"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

const boundedSource = `
int sum(void) {
    int total = 0;
    for (int i = 0; i < 10; i++) {
        total += i;
    }
    return total;
}
`

const unboundedSource = `
void spin(void) {
    int i = 0;
    while (1) {
        if (i > 7)
            break;
        i++;
    }
}
`

func TestAnalyzeBoundedFunction(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "sum.c", boundedSource)

	svc := NewAnalysisService(config.DefaultConfig())
	resp, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Paths: []string{path}})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if resp.Summary.TotalFunctions != 1 {
		t.Fatalf("Expected 1 function, got %d", resp.Summary.TotalFunctions)
	}
	fn := resp.Files[0].Functions[0]
	if fn.Name != "sum" {
		t.Errorf("Expected function 'sum', got %s", fn.Name)
	}
	if !fn.Legal {
		t.Errorf("Bounded counted loop must be legal, violations: %v", fn.Violations)
	}
	if len(fn.Loops) != 1 || !fn.Loops[0].Bounded {
		t.Errorf("Expected 1 bounded loop, got %+v", fn.Loops)
	}
	if fn.Blocks == 0 || fn.Edges == 0 {
		t.Error("Function report must carry CFG metrics")
	}
	if resp.Summary.LegalFunctions != 1 {
		t.Errorf("Expected 1 legal function, got %d", resp.Summary.LegalFunctions)
	}
}

func TestAnalyzeUnboundedLoopViolation(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "spin.c", unboundedSource)

	svc := NewAnalysisService(config.DefaultConfig())
	resp, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Paths: []string{path}})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	fn := resp.Files[0].Functions[0]
	if fn.Legal {
		t.Error("while(1) must be illegal under the default policy")
	}
	found := false
	for _, v := range fn.Violations {
		if v.Kind == "unbounded-loop" {
			found = true
			if v.Function != "spin" {
				t.Errorf("Violation attributed to %q, expected spin", v.Function)
			}
		}
	}
	if !found {
		t.Errorf("Expected unbounded-loop violation, got %v", fn.Violations)
	}
}

func TestAnalyzeRelaxedPolicy(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "spin.c", unboundedSource)

	cfg := config.DefaultConfig()
	cfg.Policy.RequireStaticBound = false

	svc := NewAnalysisService(cfg)
	resp, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Paths: []string{path}})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !resp.Files[0].Functions[0].Legal {
		t.Error("Relaxed policy must accept the unbounded loop")
	}
}

func TestAnalyzeMultipleFilesSorted(t *testing.T) {
	dir := t.TempDir()
	pathB := writeTestFile(t, dir, "b.c", boundedSource)
	pathA := writeTestFile(t, dir, "a.c", unboundedSource)

	svc := NewAnalysisService(config.DefaultConfig())
	resp, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Paths: []string{pathB, pathA}})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(resp.Files) != 2 {
		t.Fatalf("Expected 2 file reports, got %d", len(resp.Files))
	}
	if resp.Files[0].FilePath != pathA || resp.Files[1].FilePath != pathB {
		t.Error("File reports must be sorted by path")
	}
	if resp.Summary.FilesAnalyzed != 2 {
		t.Errorf("Expected 2 files analyzed, got %d", resp.Summary.FilesAnalyzed)
	}
}

func TestAnalyzeReportsDeadCode(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "dead.c", `
int f(int x) {
    return x;
    x = x + 1;
}
`)

	svc := NewAnalysisService(config.DefaultConfig())
	resp, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Paths: []string{path}})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	fn := resp.Files[0].Functions[0]
	if len(fn.DeadCode) != 1 {
		t.Fatalf("Expected 1 dead code finding, got %d", len(fn.DeadCode))
	}
	if fn.DeadCode[0].Reason != "unreachable_after_return" {
		t.Errorf("Unexpected reason: %s", fn.DeadCode[0].Reason)
	}
	// Dead code stays informational under the default policy
	if !fn.Legal {
		t.Error("Dead code must not reject the function unless the policy forbids it")
	}
}

func TestAnalyzeNoInputPaths(t *testing.T) {
	svc := NewAnalysisService(nil)
	_, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{})
	if !errors.Is(err, domain.ErrNoInputPaths) {
		t.Errorf("Expected ErrNoInputPaths, got %v", err)
	}
}

func TestAnalyzeMissingFileCollectsError(t *testing.T) {
	dir := t.TempDir()
	good := writeTestFile(t, dir, "good.c", boundedSource)
	missing := filepath.Join(dir, "missing.c")

	svc := NewAnalysisService(nil)
	resp, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Paths: []string{good, missing}})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Errorf("Expected 1 file error, got %v", resp.Errors)
	}
	if len(resp.Files) != 1 {
		t.Errorf("Good file must still be analyzed, got %d reports", len(resp.Files))
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "sum.c", boundedSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewAnalysisService(nil)
	if _, err := svc.Analyze(ctx, domain.AnalyzeRequest{Paths: []string{path}}); err == nil {
		t.Error("Expected cancellation error")
	}
}

func TestAnalyzeSortByComplexity(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "two.c", `
int simple(int x) {
    return x;
}

int branchy(int x) {
    if (x > 0) {
        x = 1;
    }
    if (x > 1) {
        x = 2;
    }
    return x;
}
`)

	svc := NewAnalysisService(nil)
	resp, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{
		Paths:  []string{path},
		SortBy: domain.SortByComplexity,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	functions := resp.Files[0].Functions
	if len(functions) != 2 {
		t.Fatalf("Expected 2 functions, got %d", len(functions))
	}
	if functions[0].Name != "branchy" {
		t.Errorf("Expected branchy first when sorting by complexity, got %s", functions[0].Name)
	}
}
