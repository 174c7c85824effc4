package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatDOT  OutputFormat = "dot"
)

// SortCriteria represents the criteria for sorting results
type SortCriteria string

const (
	SortByLocation   SortCriteria = "location"
	SortByName       SortCriteria = "name"
	SortByComplexity SortCriteria = "complexity"
)

// RiskLevel represents the complexity risk level
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// AnalyzeRequest represents a request for control-flow analysis
type AnalyzeRequest struct {
	// Input files or directories to analyze
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	ShowDetails  bool
	SortBy       SortCriteria

	// Configuration
	ConfigPath string

	// Analysis options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	NoProgress      bool
}

// ViolationReport represents a single dialect legality violation
type ViolationReport struct {
	// Kind classifies the violation (no-enclosing-loop, unbounded-loop, ...)
	Kind string `json:"kind" yaml:"kind"`

	// Function is the enclosing function name
	Function string `json:"function" yaml:"function"`

	// Message is the human-readable description
	Message string `json:"message" yaml:"message"`

	// Source location of the offending construct
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

// LoopReport represents the bound analysis result for a single loop
type LoopReport struct {
	// Kind is the loop form: while, do-while, for
	Kind string `json:"kind" yaml:"kind"`

	// Line is the source line of the loop statement
	Line int `json:"line" yaml:"line"`

	// Bounded indicates whether a static iteration bound was proven
	Bounded bool `json:"bounded" yaml:"bounded"`

	// BoundKind names the proof shape (constant_false, counted, comparison, none)
	BoundKind string `json:"bound_kind" yaml:"bound_kind"`

	// Reason explains the bound decision
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// DeadCodeReport represents a single unreachable-code finding
type DeadCodeReport struct {
	FunctionName string `json:"function_name" yaml:"function_name"`
	FilePath     string `json:"file_path" yaml:"file_path"`
	StartLine    int    `json:"start_line" yaml:"start_line"`
	EndLine      int    `json:"end_line" yaml:"end_line"`
	Reason       string `json:"reason" yaml:"reason"`
	Severity     string `json:"severity" yaml:"severity"`
	Description  string `json:"description" yaml:"description"`
}

// FunctionReport represents the lowering result for a single function
type FunctionReport struct {
	// Function identification
	Name      string `json:"name" yaml:"name"`
	FilePath  string `json:"file_path" yaml:"file_path"`
	StartLine int    `json:"start_line" yaml:"start_line"`
	EndLine   int    `json:"end_line" yaml:"end_line"`

	// CFG metrics
	Blocks       int `json:"blocks" yaml:"blocks"`
	Edges        int `json:"edges" yaml:"edges"`
	Complexity   int `json:"complexity" yaml:"complexity"`
	NestingDepth int `json:"nesting_depth" yaml:"nesting_depth"`

	// Risk assessment
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`

	// Legal indicates whether the function passed every policy gate
	Legal bool `json:"legal" yaml:"legal"`

	// Detailed findings
	Loops      []LoopReport      `json:"loops,omitempty" yaml:"loops,omitempty"`
	Violations []ViolationReport `json:"violations,omitempty" yaml:"violations,omitempty"`
	DeadCode   []DeadCodeReport  `json:"dead_code,omitempty" yaml:"dead_code,omitempty"`
}

// FileReport groups function reports for a single source file
type FileReport struct {
	FilePath  string           `json:"file_path" yaml:"file_path"`
	Functions []FunctionReport `json:"functions" yaml:"functions"`
}

// AnalyzeSummary represents aggregate statistics
type AnalyzeSummary struct {
	FilesAnalyzed     int     `json:"files_analyzed" yaml:"files_analyzed"`
	TotalFunctions    int     `json:"total_functions" yaml:"total_functions"`
	LegalFunctions    int     `json:"legal_functions" yaml:"legal_functions"`
	TotalViolations   int     `json:"total_violations" yaml:"total_violations"`
	TotalLoops        int     `json:"total_loops" yaml:"total_loops"`
	BoundedLoops      int     `json:"bounded_loops" yaml:"bounded_loops"`
	DeadCodeFindings  int     `json:"dead_code_findings" yaml:"dead_code_findings"`
	AverageComplexity float64 `json:"average_complexity" yaml:"average_complexity"`
	MaxComplexity     int     `json:"max_complexity" yaml:"max_complexity"`

	// Risk distribution
	LowRiskFunctions    int `json:"low_risk_functions" yaml:"low_risk_functions"`
	MediumRiskFunctions int `json:"medium_risk_functions" yaml:"medium_risk_functions"`
	HighRiskFunctions   int `json:"high_risk_functions" yaml:"high_risk_functions"`
}

// AnalyzeResponse represents the complete analysis result
type AnalyzeResponse struct {
	Files   []FileReport   `json:"files" yaml:"files"`
	Summary AnalyzeSummary `json:"summary" yaml:"summary"`

	// Warnings and issues
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Metadata
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Version     string `json:"version" yaml:"version"`
}

// HasViolations reports whether any function carries a violation
func (r *AnalyzeResponse) HasViolations() bool {
	return r.Summary.TotalViolations > 0
}

// Recalculate rebuilds the summary from the per-file reports
func (s *AnalyzeSummary) Recalculate(files []FileReport) {
	*s = AnalyzeSummary{FilesAnalyzed: len(files)}

	totalComplexity := 0
	for _, file := range files {
		for _, fn := range file.Functions {
			s.TotalFunctions++
			if fn.Legal {
				s.LegalFunctions++
			}
			s.TotalViolations += len(fn.Violations)
			s.DeadCodeFindings += len(fn.DeadCode)
			totalComplexity += fn.Complexity
			if fn.Complexity > s.MaxComplexity {
				s.MaxComplexity = fn.Complexity
			}
			for _, loop := range fn.Loops {
				s.TotalLoops++
				if loop.Bounded {
					s.BoundedLoops++
				}
			}
			switch fn.RiskLevel {
			case RiskLevelHigh:
				s.HighRiskFunctions++
			case RiskLevelMedium:
				s.MediumRiskFunctions++
			default:
				s.LowRiskFunctions++
			}
		}
	}

	if s.TotalFunctions > 0 {
		s.AverageComplexity = float64(totalComplexity) / float64(s.TotalFunctions)
	}
}

// AnalysisService defines the core business logic for control-flow analysis
type AnalysisService interface {
	// Analyze performs CFG lowering and legality checking on the given request
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)

	// AnalyzeFile analyzes a single C source file
	AnalyzeFile(ctx context.Context, filePath string, req AnalyzeRequest) (*AnalyzeResponse, error)
}

// CFileReader defines C source file collection and reading
type CFileReader interface {
	// CollectCFiles recursively finds all C files in the given paths
	CollectCFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// IsValidCFile checks if a file is a C source file
	IsValidCFile(path string) bool

	// FileExists checks if a file exists and returns an error if not
	FileExists(path string) (bool, error)
}

// OutputFormatter defines the interface for formatting analysis results
type OutputFormatter interface {
	// Format formats the analysis response according to the specified format
	Format(response *AnalyzeResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *AnalyzeResponse, format OutputFormat, writer io.Writer) error
}
