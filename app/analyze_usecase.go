package app

import (
	"fmt"

	"context"

	"github.com/cflow-tools/cflow/domain"
)

// AnalyzeUseCase orchestrates the control-flow analysis workflow
type AnalyzeUseCase struct {
	service    domain.AnalysisService
	formatter  domain.OutputFormatter
	fileHelper *FileHelper
}

// NewAnalyzeUseCase creates a new analyze use case
func NewAnalyzeUseCase(service domain.AnalysisService, formatter domain.OutputFormatter) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		service:    service,
		formatter:  formatter,
		fileHelper: NewFileHelper(),
	}
}

// Execute performs the complete analysis workflow: collect files, lower
// them, check the policy, and write the formatted report
func (uc *AnalyzeUseCase) Execute(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := ResolveFilePaths(
		uc.fileHelper,
		req.Paths,
		req.Recursive,
		req.IncludePatterns,
		req.ExcludePatterns,
	)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect files", err)
	}

	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no C source files found in the specified paths", nil)
	}

	req.Paths = files

	response, err := uc.service.Analyze(ctx, req)
	if err != nil {
		return nil, domain.NewAnalysisError("control-flow analysis failed", err)
	}

	if req.OutputWriter != nil {
		if err := uc.formatter.Write(response, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
	}

	return response, nil
}

// AnalyzeFile analyzes a single file
func (uc *AnalyzeUseCase) AnalyzeFile(ctx context.Context, filePath string, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	if !uc.fileHelper.IsValidCFile(filePath) {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("not a C source file: %s", filePath), nil)
	}

	exists, err := uc.fileHelper.FileExists(filePath)
	if err != nil {
		return nil, domain.NewFileNotFoundError(filePath, err)
	}
	if !exists {
		return nil, domain.NewFileNotFoundError(filePath, fmt.Errorf("file does not exist"))
	}

	req.Paths = []string{filePath}
	return uc.Execute(ctx, req)
}

// validateRequest checks the request before any file IO happens
func (uc *AnalyzeUseCase) validateRequest(req domain.AnalyzeRequest) error {
	if len(req.Paths) == 0 {
		return domain.ErrNoInputPaths
	}

	switch req.OutputFormat {
	case "", domain.OutputFormatText, domain.OutputFormatJSON, domain.OutputFormatYAML:
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidFormat, req.OutputFormat)
	}

	return nil
}
