package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/cflow-tools/cflow/domain"
	"github.com/cflow-tools/cflow/internal/analyzer"
	"github.com/cflow-tools/cflow/internal/config"
	"github.com/cflow-tools/cflow/internal/parser"
	"github.com/cflow-tools/cflow/internal/version"
)

// severityRank orders dead code severities for min-severity filtering
var severityRank = map[analyzer.SeverityLevel]int{
	analyzer.SeverityLevelInfo:     0,
	analyzer.SeverityLevelWarning:  1,
	analyzer.SeverityLevelCritical: 2,
}

// AnalysisServiceImpl implements the AnalysisService interface
type AnalysisServiceImpl struct {
	config   *config.Config
	progress domain.ProgressManager
}

// NewAnalysisService creates a new analysis service implementation
func NewAnalysisService(cfg *config.Config) *AnalysisServiceImpl {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &AnalysisServiceImpl{
		config: cfg,
	}
}

// NewAnalysisServiceWithProgress creates a new analysis service with progress reporting
func NewAnalysisServiceWithProgress(cfg *config.Config, pm domain.ProgressManager) *AnalysisServiceImpl {
	svc := NewAnalysisService(cfg)
	svc.progress = pm
	return svc
}

// Analyze lowers every function in the requested files to a CFG and runs
// the legality policy over the result
func (s *AnalysisServiceImpl) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	if len(req.Paths) == 0 {
		return nil, domain.ErrNoInputPaths
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	// Set up progress tracking (use no-op if progress manager not set)
	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Analyzing control flow", len(req.Paths))
	}
	defer task.Complete()

	// Files are independent, so they are lowered in parallel. Each task
	// writes into its own slot; per-file failures land in the response
	// instead of aborting siblings.
	results := make([]fileAnalysisResult, len(req.Paths))
	tasks := make([]domain.ExecutableTask, len(req.Paths))
	for i, filePath := range req.Paths {
		tasks[i] = &fileAnalysisTask{
			service:  s,
			filePath: filePath,
			progress: task,
			result:   &results[i],
		}
	}

	executor := NewParallelExecutorFromConfig(&s.config.Analysis)
	if err := executor.Execute(ctx, tasks); err != nil {
		return nil, domain.NewAnalysisError("analysis execution failed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	var files []domain.FileReport
	var warnings []string
	var errors []string

	for _, res := range results {
		if len(res.errors) > 0 {
			errors = append(errors, res.errors...)
			continue
		}
		if res.report.FilePath == "" {
			continue
		}
		if len(res.report.Functions) == 0 {
			warnings = append(warnings, fmt.Sprintf("[%s] no function definitions found", res.report.FilePath))
		}
		files = append(files, res.report)
	}

	if len(files) == 0 && len(errors) > 0 {
		return nil, domain.NewAnalysisError("all input files failed to analyze", nil)
	}

	s.sortFiles(files, req.SortBy)

	var summary domain.AnalyzeSummary
	summary.Recalculate(files)

	return &domain.AnalyzeResponse{
		Files:       files,
		Summary:     summary,
		Warnings:    warnings,
		Errors:      errors,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	}, nil
}

// fileAnalysisResult carries one file's outcome out of a parallel task
type fileAnalysisResult struct {
	report domain.FileReport
	errors []string
}

// fileAnalysisTask lowers and checks a single file inside the executor
type fileAnalysisTask struct {
	service  *AnalysisServiceImpl
	filePath string
	progress domain.TaskProgress
	result   *fileAnalysisResult
}

func (t *fileAnalysisTask) Name() string {
	return t.filePath
}

func (t *fileAnalysisTask) IsEnabled() bool {
	return true
}

func (t *fileAnalysisTask) Execute(ctx context.Context) (interface{}, error) {
	t.progress.Describe(t.filePath)
	report, errs := t.service.analyzeFile(t.filePath)
	t.progress.Increment(1)

	t.result.report = report
	t.result.errors = errs
	return report, nil
}

// AnalyzeFile analyzes a single C source file
func (s *AnalysisServiceImpl) AnalyzeFile(ctx context.Context, filePath string, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	singleFileReq := req
	singleFileReq.Paths = []string{filePath}
	return s.Analyze(ctx, singleFileReq)
}

// analyzeFile lowers and checks one source file
func (s *AnalysisServiceImpl) analyzeFile(filePath string) (domain.FileReport, []string) {
	report := domain.FileReport{FilePath: filePath}
	var errors []string

	content, err := os.ReadFile(filePath)
	if err != nil {
		errors = append(errors, fmt.Sprintf("[%s] failed to read file: %v", filePath, err))
		return report, errors
	}

	ast, err := parser.ParseSource(filePath, content)
	if err != nil {
		errors = append(errors, domain.NewParseError(filePath, err).Error())
		return report, errors
	}

	builder := analyzer.NewCFGBuilder()
	cfgs, err := builder.BuildAll(ast)
	if err != nil {
		errors = append(errors, fmt.Sprintf("[%s] failed to build CFG: %v", filePath, err))
		return report, errors
	}

	checker := analyzer.NewLegalityChecker(&s.config.Policy)
	boundAnalyzer := analyzer.NewLoopBoundAnalyzer()

	// Sorted function names keep the report deterministic
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := cfgs[name]
		report.Functions = append(report.Functions, s.buildFunctionReport(name, filePath, cfg, checker, boundAnalyzer))
	}

	return report, errors
}

// buildFunctionReport converts one lowered CFG into its domain report
func (s *AnalysisServiceImpl) buildFunctionReport(
	name string,
	filePath string,
	cfg *analyzer.CFG,
	checker *analyzer.LegalityChecker,
	boundAnalyzer *analyzer.LoopBoundAnalyzer,
) domain.FunctionReport {
	violations := checker.Check(cfg)
	complexity := analyzer.CalculateComplexity(cfg)

	fn := domain.FunctionReport{
		Name:       name,
		FilePath:   filePath,
		Blocks:     cfg.BlockCount(),
		Edges:      cfg.EdgeCount(),
		Complexity: complexity.Complexity,
		RiskLevel:  domain.RiskLevel(complexity.RiskLevel),
		Legal:      len(violations) == 0,
	}

	if cfg.FunctionNode != nil {
		fn.StartLine = cfg.FunctionNode.Location.StartLine
		fn.EndLine = cfg.FunctionNode.Location.EndLine
		fn.NestingDepth = analyzer.CalculateNestingDepth(cfg.FunctionNode)
	}

	for _, loop := range cfg.Loops {
		bound := boundAnalyzer.Analyze(loop)
		loopReport := domain.LoopReport{
			Kind:      loop.Kind.String(),
			Bounded:   bound.Bounded,
			BoundKind: bound.Kind.String(),
			Reason:    bound.Reason,
		}
		if loop.Node != nil {
			loopReport.Line = loop.Node.Location.StartLine
		}
		fn.Loops = append(fn.Loops, loopReport)
	}

	for _, v := range violations {
		fn.Violations = append(fn.Violations, ViolationToReport(v))
	}

	if s.config.DeadCode.Enabled {
		fn.DeadCode = s.deadCodeReports(cfg, filePath)
	}

	return fn
}

// deadCodeReports runs dead code detection and filters by min severity
func (s *AnalysisServiceImpl) deadCodeReports(cfg *analyzer.CFG, filePath string) []domain.DeadCodeReport {
	result := analyzer.NewDeadCodeDetectorWithFilePath(cfg, filePath).Detect()
	if result == nil {
		return nil
	}

	minRank := severityRank[analyzer.SeverityLevel(s.config.DeadCode.MinSeverity)]

	var reports []domain.DeadCodeReport
	for _, finding := range result.Findings {
		if severityRank[finding.Severity] < minRank {
			continue
		}
		reports = append(reports, domain.DeadCodeReport{
			FunctionName: finding.FunctionName,
			FilePath:     finding.FilePath,
			StartLine:    finding.StartLine,
			EndLine:      finding.EndLine,
			Reason:       string(finding.Reason),
			Severity:     string(finding.Severity),
			Description:  finding.Description,
		})
	}
	return reports
}

// sortFiles orders files and their functions by the requested criteria
func (s *AnalysisServiceImpl) sortFiles(files []domain.FileReport, sortBy domain.SortCriteria) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].FilePath < files[j].FilePath
	})

	for i := range files {
		functions := files[i].Functions
		switch sortBy {
		case domain.SortByName:
			sort.Slice(functions, func(a, b int) bool {
				return functions[a].Name < functions[b].Name
			})
		case domain.SortByComplexity:
			sort.Slice(functions, func(a, b int) bool {
				if functions[a].Complexity != functions[b].Complexity {
					return functions[a].Complexity > functions[b].Complexity
				}
				return functions[a].Name < functions[b].Name
			})
		default:
			sort.Slice(functions, func(a, b int) bool {
				if functions[a].StartLine != functions[b].StartLine {
					return functions[a].StartLine < functions[b].StartLine
				}
				return functions[a].Name < functions[b].Name
			})
		}
	}
}

// ViolationToReport converts an analyzer violation into its domain report
func ViolationToReport(v *analyzer.Violation) domain.ViolationReport {
	return domain.ViolationReport{
		Kind:     v.Kind.String(),
		Function: v.Function,
		Message:  v.Message,
		File:     v.Location.File,
		Line:     v.Location.StartLine,
		Column:   v.Location.StartCol,
	}
}
