package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cflow-tools/cflow/domain"
	"gopkg.in/yaml.v3"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WriteJSON writes data as indented JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	defer func() { _ = encoder.Close() }()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

// Format formats the analysis response according to the specified format
func (f *OutputFormatterImpl) Format(response *domain.AnalyzeResponse, format domain.OutputFormat) (string, error) {
	var sb strings.Builder
	if err := f.Write(response, format, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write writes the formatted output to the writer
func (f *OutputFormatterImpl) Write(response *domain.AnalyzeResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatText:
		return f.writeText(response, writer)
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidFormat, format)
	}
}

// writeText writes the analysis response as plain text
func (f *OutputFormatterImpl) writeText(response *domain.AnalyzeResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== Control Flow Analysis ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(writer, "Version: %s\n\n", response.Version)

	// Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Files analyzed: %d\n", response.Summary.FilesAnalyzed)
	fmt.Fprintf(writer, "  Total functions: %d\n", response.Summary.TotalFunctions)
	fmt.Fprintf(writer, "  Legal functions: %d\n", response.Summary.LegalFunctions)
	fmt.Fprintf(writer, "  Violations: %d\n", response.Summary.TotalViolations)
	fmt.Fprintf(writer, "  Loops: %d (%d bounded)\n", response.Summary.TotalLoops, response.Summary.BoundedLoops)
	fmt.Fprintf(writer, "  Average complexity: %.2f\n", response.Summary.AverageComplexity)
	fmt.Fprintf(writer, "  Max complexity: %d\n", response.Summary.MaxComplexity)
	fmt.Fprintf(writer, "\n")

	// Risk distribution
	fmt.Fprintf(writer, "Risk Distribution:\n")
	fmt.Fprintf(writer, "  High risk: %d\n", response.Summary.HighRiskFunctions)
	fmt.Fprintf(writer, "  Medium risk: %d\n", response.Summary.MediumRiskFunctions)
	fmt.Fprintf(writer, "  Low risk: %d\n", response.Summary.LowRiskFunctions)
	fmt.Fprintf(writer, "\n")

	// Per-file details
	for _, file := range response.Files {
		fmt.Fprintf(writer, "%s:\n", file.FilePath)
		for _, fn := range file.Functions {
			f.writeFunctionText(writer, fn)
		}
		fmt.Fprintf(writer, "\n")
	}

	// Warnings
	if len(response.Warnings) > 0 {
		fmt.Fprintf(writer, "Warnings:\n")
		for _, w := range response.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}

	// Errors
	if len(response.Errors) > 0 {
		fmt.Fprintf(writer, "Errors:\n")
		for _, e := range response.Errors {
			fmt.Fprintf(writer, "  - %s\n", e)
		}
	}

	return nil
}

// writeFunctionText writes one function report as plain text
func (f *OutputFormatterImpl) writeFunctionText(writer io.Writer, fn domain.FunctionReport) {
	verdict := "LEGAL"
	if !fn.Legal {
		verdict = "ILLEGAL"
	}

	riskIndicator := ""
	switch fn.RiskLevel {
	case domain.RiskLevelHigh:
		riskIndicator = " [HIGH]"
	case domain.RiskLevelMedium:
		riskIndicator = " [MEDIUM]"
	}

	fmt.Fprintf(writer, "  %s (line %d): %s\n", fn.Name, fn.StartLine, verdict)
	fmt.Fprintf(writer, "    Blocks: %d, Edges: %d, Complexity: %d%s\n",
		fn.Blocks, fn.Edges, fn.Complexity, riskIndicator)

	for _, loop := range fn.Loops {
		boundText := "unbounded"
		if loop.Bounded {
			boundText = fmt.Sprintf("bounded (%s)", loop.BoundKind)
		}
		fmt.Fprintf(writer, "    Loop %s at line %d: %s\n", loop.Kind, loop.Line, boundText)
	}

	for _, v := range fn.Violations {
		fmt.Fprintf(writer, "    Violation [%s] line %d: %s\n", v.Kind, v.Line, v.Message)
	}

	for _, finding := range fn.DeadCode {
		fmt.Fprintf(writer, "    Dead code lines %d-%d: %s [%s]\n",
			finding.StartLine, finding.EndLine, finding.Reason,
			strings.ToUpper(finding.Severity))
	}
}

// WriteCheckResult writes a check result as text or JSON
func (f *OutputFormatterImpl) WriteCheckResult(result *domain.CheckResult, asJSON bool, verbose bool, writer io.Writer) error {
	if asJSON {
		return WriteJSON(writer, result)
	}

	for _, fixture := range result.Fixtures {
		status := "PASS"
		switch {
		case fixture.Expectation != domain.ExpectationNone && !fixture.Matched:
			status = "MISMATCH"
		case fixture.Expectation == domain.ExpectationNone && !fixture.Legal:
			status = "FAIL"
		}

		fmt.Fprintf(writer, "%-8s %s", status, fixture.FilePath)
		if fixture.Expectation != domain.ExpectationNone {
			fmt.Fprintf(writer, " (expected: %s)", fixture.Expectation)
		}
		fmt.Fprintln(writer)

		if verbose || status != "PASS" {
			for _, v := range fixture.Violations {
				fmt.Fprintf(writer, "         [%s] %s:%d %s\n", v.Kind, v.File, v.Line, v.Message)
			}
		}
	}

	fmt.Fprintf(writer, "\n%d files checked, %d legal, %d illegal, %d violations\n",
		result.Summary.FilesChecked, result.Summary.LegalFiles,
		result.Summary.IllegalFiles, result.Summary.TotalViolations)
	if result.Summary.ExpectationsDeclared > 0 {
		fmt.Fprintf(writer, "%d expectations declared, %d mismatched\n",
			result.Summary.ExpectationsDeclared, result.Summary.ExpectationMismatches)
	}
	return nil
}
