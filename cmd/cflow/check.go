package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cflow-tools/cflow/app"
	"github.com/cflow-tools/cflow/domain"
	"github.com/cflow-tools/cflow/internal/config"
	"github.com/cflow-tools/cflow/service"
	"github.com/spf13/cobra"
)

// CheckExitError carries an exit code through cobra's error handling.
// Exit code 0 means all checks passed, 1 means violations or expectation
// mismatches were found, 2 means the analysis itself failed.
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkJSON    bool
	checkVerbose bool
	checkConfig  string
	checkFlat    bool
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Check C files against the dialect policy",
		Long: `Check C source files against the legality policy and verify any
declared expectations. A fixture file may start with a "// Should pass" or
"// Should fail" comment; the verdict is compared against it.

Exit codes:
  0  all files legal (or illegal as declared)
  1  violations or expectation mismatches found
  2  analysis failed

Examples:
  cflow check tests/
  cflow check --json tests/ > report.json
  cflow check --verbose fixtures/break_continue.c`,
		RunE:          runCheck,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false,
		"Show violations for passing files too")
	cmd.Flags().BoolVar(&checkFlat, "flat", false,
		"Don't descend into subdirectories")
	cmd.Flags().StringVarP(&checkConfig, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: 2, Message: "no paths specified"}
	}

	var cfg *config.Config
	var err error
	if checkConfig != "" {
		cfg, err = config.LoadConfig(checkConfig)
	} else {
		cfg, err = config.LoadConfigWithTarget("", args[0])
	}
	if err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("failed to load config: %v", err)}
	}

	pm := service.NewProgressManager(!checkJSON)
	defer pm.Close()

	svc := service.NewCheckServiceWithProgress(cfg, pm)
	useCase := app.NewCheckUseCase(svc)

	req := domain.CheckRequest{
		Paths:           args,
		OutputWriter:    os.Stdout,
		JSON:            checkJSON,
		Verbose:         checkVerbose,
		ConfigPath:      checkConfig,
		Recursive:       !checkFlat,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
	}

	result, err := useCase.Execute(context.Background(), req)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	formatter := service.NewOutputFormatter()
	if err := formatter.WriteCheckResult(result, checkJSON, checkVerbose, os.Stdout); err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("failed to write results: %v", err)}
	}

	if !result.Passed {
		// Output is already printed; only the exit code matters here
		return &CheckExitError{Code: result.ExitCode}
	}
	return nil
}
