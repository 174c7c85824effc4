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

var (
	outputFormat string
	configPath   string
	jsonOutput   bool
	sortBy       string
	showDetails  bool
	noRecursive  bool
	noProgress   bool
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Analyze C files",
		Long: `Analyze C source files: build control flow graphs, check loop bounds,
compute complexity, and report policy violations.

Examples:
  cflow analyze src/
  cflow analyze --json src/
  cflow analyze --sort complexity --details src/
  cflow analyze --config cflow.yaml main.c`,
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text",
		"Output format: text, json, yaml")
	cmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().StringVar(&sortBy, "sort", "location",
		"Sort functions by: location, name, complexity")
	cmd.Flags().BoolVar(&showDetails, "details", false,
		"Show per-loop and per-block details")
	cmd.Flags().BoolVar(&noRecursive, "no-recursive", false,
		"Don't descend into subdirectories")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false,
		"Disable progress output")
	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no paths specified")
	}

	// Determine output format
	format := domain.OutputFormat(outputFormat)
	if jsonOutput {
		format = domain.OutputFormatJSON
	}

	// Load configuration (nearest cflow.yaml when no explicit path given)
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigWithTarget("", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Progress goes to stderr; disable it for machine-readable output
	progressEnabled := !noProgress && format == domain.OutputFormatText
	pm := service.NewProgressManager(progressEnabled)
	defer pm.Close()

	svc := service.NewAnalysisServiceWithProgress(cfg, pm)
	useCase := app.NewAnalyzeUseCase(svc, service.NewOutputFormatter())

	req := domain.AnalyzeRequest{
		Paths:           args,
		OutputFormat:    format,
		OutputWriter:    os.Stdout,
		ShowDetails:     showDetails,
		SortBy:          domain.SortCriteria(sortBy),
		ConfigPath:      configPath,
		Recursive:       !noRecursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
		NoProgress:      noProgress,
	}

	resp, err := useCase.Execute(context.Background(), req)
	if err != nil {
		return err
	}

	if resp.HasViolations() {
		return &CheckExitError{Code: 1}
	}
	return nil
}
