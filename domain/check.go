package domain

import (
	"context"
	"io"
)

// Expectation is the verdict a fixture file declares for itself via a
// leading comment: "// Should pass" or "// Should fail".
type Expectation string

const (
	ExpectationNone Expectation = ""
	ExpectationPass Expectation = "pass"
	ExpectationFail Expectation = "fail"
)

// CheckRequest represents a request for a legality check run
type CheckRequest struct {
	// Input files or directories to check
	Paths []string

	// Output configuration
	OutputWriter io.Writer
	JSON         bool
	Verbose      bool

	// Configuration
	ConfigPath string

	// Analysis options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// FixtureResult represents the check outcome for a single source file
type FixtureResult struct {
	// FilePath is the checked file
	FilePath string `json:"file_path"`

	// Legal indicates every function in the file passed the policy
	Legal bool `json:"legal"`

	// Expectation is the verdict the file declared, if any
	Expectation Expectation `json:"expectation,omitempty"`

	// Matched indicates the outcome agrees with the declared expectation.
	// Always true when no expectation is declared.
	Matched bool `json:"matched"`

	// Violations lists the legality violations found in the file
	Violations []ViolationReport `json:"violations,omitempty"`
}

// CheckSummary provides aggregate statistics for a check run
type CheckSummary struct {
	FilesChecked          int `json:"files_checked"`
	LegalFiles            int `json:"legal_files"`
	IllegalFiles          int `json:"illegal_files"`
	TotalViolations       int `json:"total_violations"`
	ExpectationsDeclared  int `json:"expectations_declared"`
	ExpectationMismatches int `json:"expectation_mismatches"`
}

// CheckResult represents the result of a legality check run
type CheckResult struct {
	// Passed is true when every file without an expectation is legal and
	// every declared expectation matched its outcome
	Passed bool `json:"passed"`

	// ExitCode is the process exit code: 0 pass, 1 violations, 2 errors
	ExitCode int `json:"exit_code"`

	Fixtures []FixtureResult `json:"fixtures"`
	Summary  CheckSummary    `json:"summary"`

	Duration    int64  `json:"duration_ms"`
	GeneratedAt string `json:"generated_at"`
	Version     string `json:"version"`
}

// Finalize derives Passed, ExitCode and the summary from the fixture results
func (r *CheckResult) Finalize() {
	summary := CheckSummary{FilesChecked: len(r.Fixtures)}
	passed := true

	for _, fixture := range r.Fixtures {
		if fixture.Legal {
			summary.LegalFiles++
		} else {
			summary.IllegalFiles++
		}
		summary.TotalViolations += len(fixture.Violations)

		if fixture.Expectation != ExpectationNone {
			summary.ExpectationsDeclared++
			if !fixture.Matched {
				summary.ExpectationMismatches++
				passed = false
			}
			continue
		}
		if !fixture.Legal {
			passed = false
		}
	}

	r.Summary = summary
	r.Passed = passed
	if passed {
		r.ExitCode = 0
	} else {
		r.ExitCode = 1
	}
}

// CheckService defines the business logic for legality check runs
type CheckService interface {
	// Check runs the legality policy over the requested paths
	Check(ctx context.Context, req CheckRequest) (*CheckResult, error)
}
