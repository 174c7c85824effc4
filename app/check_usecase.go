package app

import (
	"context"

	"github.com/cflow-tools/cflow/domain"
)

// CheckUseCase orchestrates the legality check workflow
type CheckUseCase struct {
	service    domain.CheckService
	fileHelper *FileHelper
}

// NewCheckUseCase creates a new check use case
func NewCheckUseCase(service domain.CheckService) *CheckUseCase {
	return &CheckUseCase{
		service:    service,
		fileHelper: NewFileHelper(),
	}
}

// Execute collects the requested files and runs the legality policy over them
func (uc *CheckUseCase) Execute(ctx context.Context, req domain.CheckRequest) (*domain.CheckResult, error) {
	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no input paths specified", domain.ErrNoInputPaths)
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
	return uc.service.Check(ctx, req)
}
