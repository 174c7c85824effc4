package service

import (
	"strings"
	"testing"

	"github.com/cflow-tools/cflow/internal/analyzer"
	"github.com/cflow-tools/cflow/internal/parser"
)

func buildTestCFG(t *testing.T, source string) *analyzer.CFG {
	t.Helper()
	ast, err := parser.ParseSource("test.c", []byte(source))
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}
	cfgs, err := analyzer.NewCFGBuilder().BuildAll(ast)
	if err != nil {
		t.Fatalf("Failed to build CFGs: %v", err)
	}
	for _, cfg := range cfgs {
		return cfg
	}
	t.Fatal("No function in source")
	return nil
}

func TestFormatCFGBasicStructure(t *testing.T) {
	cfg := buildTestCFG(t, `
int count(void) {
    int total = 0;
    for (int i = 0; i < 10; i++) {
        total += i;
    }
    return total;
}
`)

	formatter := NewDOTFormatter(nil)
	output, err := formatter.FormatCFG(cfg)
	if err != nil {
		t.Fatalf("FormatCFG failed: %v", err)
	}

	for _, expected := range []string{
		"digraph count {",
		"rankdir=TB;",
		"ENTRY",
		"EXIT",
		`label="true"`,
		`label="false"`,
		`label="loop"`,
		"cluster_legend",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("DOT output missing %q\n%s", expected, output)
		}
	}
}

func TestFormatCFGBreakEdges(t *testing.T) {
	cfg := buildTestCFG(t, `
void f(void) {
    int i = 0;
    while (i < 8) {
        if (i > 3)
            break;
        i++;
    }
}
`)

	formatter := NewDOTFormatter(&DOTFormatterConfig{RankDir: "LR", ShowStatements: false})
	output, err := formatter.FormatCFG(cfg)
	if err != nil {
		t.Fatalf("FormatCFG failed: %v", err)
	}

	if !strings.Contains(output, "rankdir=LR;") {
		t.Error("RankDir config not applied")
	}
	if !strings.Contains(output, `label="break"`) {
		t.Error("Break edge must be labelled")
	}
	if strings.Contains(output, "cluster_legend") {
		t.Error("Legend must be omitted when disabled")
	}
}

func TestFormatCFGInvalidRankDir(t *testing.T) {
	cfg := buildTestCFG(t, "int f(void) { return 0; }")

	formatter := NewDOTFormatter(&DOTFormatterConfig{RankDir: "XX"})
	if _, err := formatter.FormatCFG(cfg); err == nil {
		t.Error("Expected error for invalid rank direction")
	}
}

func TestFormatCFGNil(t *testing.T) {
	formatter := NewDOTFormatter(nil)
	if _, err := formatter.FormatCFG(nil); err == nil {
		t.Error("Expected error for nil CFG")
	}
}

func TestFormatCFGDeterministic(t *testing.T) {
	source := `
void grid(void) {
    for (int i = 0; i < 3; i++) {
        for (int j = 0; j < 3; j++) {
            if (j > i)
                continue;
        }
    }
}
`
	formatter := NewDOTFormatter(nil)

	first, err := formatter.FormatCFG(buildTestCFG(t, source))
	if err != nil {
		t.Fatalf("FormatCFG failed: %v", err)
	}
	second, err := formatter.FormatCFG(buildTestCFG(t, source))
	if err != nil {
		t.Fatalf("FormatCFG failed: %v", err)
	}

	// Strip the generation timestamp before comparing
	trim := func(s string) string {
		lines := strings.Split(s, "\n")
		return strings.Join(lines[1:], "\n")
	}
	if trim(first) != trim(second) {
		t.Error("DOT output must be deterministic for identical input")
	}
}

func TestWriteAllSortsFunctions(t *testing.T) {
	ast, err := parser.ParseSource("multi.c", []byte(`
void zeta(void) { return; }
void alpha(void) { return; }
`))
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}
	cfgs, err := analyzer.NewCFGBuilder().BuildAll(ast)
	if err != nil {
		t.Fatalf("Failed to build CFGs: %v", err)
	}

	var sb strings.Builder
	formatter := NewDOTFormatter(nil)
	if err := formatter.WriteAll(cfgs, &sb); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	output := sb.String()

	alphaIdx := strings.Index(output, "digraph alpha")
	zetaIdx := strings.Index(output, "digraph zeta")
	if alphaIdx < 0 || zetaIdx < 0 {
		t.Fatalf("Missing digraphs in output:\n%s", output)
	}
	if alphaIdx > zetaIdx {
		t.Error("Functions must be emitted in sorted order")
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"entry", "entry"},
		{"if_then_1", "if_then_1"},
		{"do-while", "do_while"},
		{"", "_"},
	}
	for _, tc := range tests {
		if got := sanitizeID(tc.input); got != tc.expected {
			t.Errorf("sanitizeID(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}
