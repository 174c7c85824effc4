package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "cflow"

	// ConfigFileName is the default config file name
	ConfigFileName = "cflow.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "CFLOW"
)

// Analysis type constants
const (
	AnalysisCFG        = "cfg"
	AnalysisLegality   = "legality"
	AnalysisDeadCode   = "deadcode"
	AnalysisComplexity = "complexity"
)

// Output format constants
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
	OutputFormatDOT  = "dot"
)

// Violation kind constants, matching analyzer.ViolationKind strings
const (
	ViolationNoEnclosingLoop = "no-enclosing-loop"
	ViolationUnboundedLoop   = "unbounded-loop"
	ViolationUnsupported     = "unsupported-construct"
	ViolationDeadCode        = "dead-code"
	ViolationComplexity      = "complexity"
)
