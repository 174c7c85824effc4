package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cflow-tools/cflow/domain"
	"github.com/cflow-tools/cflow/internal/analyzer"
	"github.com/cflow-tools/cflow/internal/config"
	"github.com/cflow-tools/cflow/internal/parser"
	"github.com/cflow-tools/cflow/internal/version"
)

// CheckServiceImpl implements the CheckService interface
type CheckServiceImpl struct {
	config   *config.Config
	progress domain.ProgressManager
}

// NewCheckService creates a new check service implementation
func NewCheckService(cfg *config.Config) *CheckServiceImpl {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &CheckServiceImpl{config: cfg}
}

// NewCheckServiceWithProgress creates a new check service with progress reporting
func NewCheckServiceWithProgress(cfg *config.Config, pm domain.ProgressManager) *CheckServiceImpl {
	svc := NewCheckService(cfg)
	svc.progress = pm
	return svc
}

// Check runs the legality policy over the requested files. Files may declare
// their own expected verdict with a leading "// Should pass" or
// "// Should fail" comment; declared expectations are compared against the
// actual outcome instead of failing the run directly.
func (s *CheckServiceImpl) Check(ctx context.Context, req domain.CheckRequest) (*domain.CheckResult, error) {
	if len(req.Paths) == 0 {
		return nil, domain.ErrNoInputPaths
	}

	startTime := time.Now()

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Checking legality", len(req.Paths))
	}
	defer task.Complete()

	result := &domain.CheckResult{
		GeneratedAt: startTime.Format(time.RFC3339),
		Version:     version.Version,
	}

	for _, filePath := range req.Paths {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("check cancelled: %w", ctx.Err())
		default:
		}

		task.Describe(filePath)
		fixture, err := s.checkFile(filePath)
		task.Increment(1)
		if err != nil {
			return nil, err
		}
		result.Fixtures = append(result.Fixtures, fixture)
	}

	result.Finalize()
	result.Duration = time.Since(startTime).Milliseconds()
	return result, nil
}

// checkFile runs the policy over one source file
func (s *CheckServiceImpl) checkFile(filePath string) (domain.FixtureResult, error) {
	fixture := domain.FixtureResult{FilePath: filePath}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fixture, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	fixture.Expectation = ParseExpectation(content)

	ast, err := parser.ParseSource(filePath, content)
	if err != nil {
		return fixture, domain.NewParseError(filePath, err)
	}

	builder := analyzer.NewCFGBuilder()
	cfgs, err := builder.BuildAll(ast)
	if err != nil {
		return fixture, fmt.Errorf("failed to build CFG for %s: %w", filePath, err)
	}

	checker := analyzer.NewLegalityChecker(&s.config.Policy)
	violations := checker.CheckAll(cfgs)

	fixture.Legal = len(violations) == 0
	for _, v := range violations {
		report := ViolationToReport(v)
		if report.File == "" {
			report.File = filePath
		}
		fixture.Violations = append(fixture.Violations, report)
	}

	switch fixture.Expectation {
	case domain.ExpectationPass:
		fixture.Matched = fixture.Legal
	case domain.ExpectationFail:
		fixture.Matched = !fixture.Legal
	default:
		fixture.Matched = true
	}

	return fixture, nil
}

// ParseExpectation reads the expected verdict from a fixture's leading
// comment lines. Only comments before the first non-comment, non-blank line
// are considered.
func ParseExpectation(source []byte) domain.Expectation {
	scanner := bufio.NewScanner(bytes.NewReader(source))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "//") {
			return domain.ExpectationNone
		}

		comment := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "//")))
		switch {
		case strings.HasPrefix(comment, "should fail"):
			return domain.ExpectationFail
		case strings.HasPrefix(comment, "should pass"):
			return domain.ExpectationPass
		}
	}
	return domain.ExpectationNone
}
