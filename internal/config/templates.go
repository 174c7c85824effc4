package config

import "strconv"

// DialectType represents the C dialect a project targets
type DialectType string

const (
	DialectGeneric   DialectType = "generic"
	DialectSynthesis DialectType = "synthesis"
)

// Strictness represents the dialect strictness level
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// DialectPreset holds scope presets for different dialect targets
type DialectPreset struct {
	IncludePatterns []string
	ExcludePatterns []string
}

// StrictnessPreset holds policy values for different strictness levels
type StrictnessPreset struct {
	RequireStaticBound bool
	ForbidDeadCode     bool
	MaxComplexity      int
}

// GetDialectPresets returns file-scope presets for the known dialect targets
func GetDialectPresets() map[DialectType]DialectPreset {
	return map[DialectType]DialectPreset{
		DialectGeneric: {
			IncludePatterns: []string{"**/*.c"},
			ExcludePatterns: []string{
				".git",
				"build",
				"vendor",
			},
		},
		DialectSynthesis: {
			IncludePatterns: []string{"**/*.c"},
			ExcludePatterns: []string{
				".git",
				"build",
				"out",
				"vendor",
				"testbench",
			},
		},
	}
}

// GetStrictnessPresets returns policy presets for the strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			RequireStaticBound: false,
			ForbidDeadCode:     false,
			MaxComplexity:      0, // No limit
		},
		StrictnessStandard: {
			RequireStaticBound: true,
			ForbidDeadCode:     false,
			MaxComplexity:      0, // No limit
		},
		StrictnessStrict: {
			RequireStaticBound: true,
			ForbidDeadCode:     true,
			MaxComplexity:      15,
		},
	}
}

// ConfigFromPresets builds a full Config from a dialect and strictness preset
func ConfigFromPresets(dialect DialectType, strictness Strictness) *Config {
	config := DefaultConfig()

	if preset, ok := GetDialectPresets()[dialect]; ok {
		config.Analysis.IncludePatterns = preset.IncludePatterns
		config.Analysis.ExcludePatterns = preset.ExcludePatterns
	}

	if preset, ok := GetStrictnessPresets()[strictness]; ok {
		config.Policy.RequireStaticBound = preset.RequireStaticBound
		config.Policy.ForbidDeadCode = preset.ForbidDeadCode
		config.Policy.MaxComplexity = preset.MaxComplexity
	}

	return config
}

// GetFullConfigTemplate returns the documented YAML config template
func GetFullConfigTemplate(dialect DialectType, strictness Strictness) string {
	dialectPresets := GetDialectPresets()
	strictnessPresets := GetStrictnessPresets()

	preset := dialectPresets[dialect]
	strict := strictnessPresets[strictness]

	return `# cflow configuration
# Documentation: https://github.com/cflow-tools/cflow

# Dialect legality policy. These options decide which control-flow shapes
# are accepted; they never affect how CFGs are built.
policy:
  # Reject loops with no statically provable iteration bound.
  # while(1) with a break escape does not count as bounded.
  require_static_bound: ` + strconv.FormatBool(strict.RequireStaticBound) + `

  # Treat unreachable code as a violation instead of an informational finding
  forbid_dead_code: ` + strconv.FormatBool(strict.ForbidDeadCode) + `

  # Maximum allowed cyclomatic complexity per function (0 = no limit)
  max_complexity: ` + strconv.Itoa(strict.MaxComplexity) + `

# Dead code reporting (informational unless policy.forbid_dead_code is set)
dead_code:
  enabled: true
  # Minimum severity to report: "info", "warning", "critical"
  min_severity: "warning"

# Output settings
output:
  # Output format: "text", "json", "yaml"
  format: "text"

  # Show per-function CFG details (block and edge counts)
  show_details: false

# Analysis scope
analysis:
  include_patterns: ` + formatYAMLArray(preset.IncludePatterns) + `
  exclude_patterns: ` + formatYAMLArray(preset.ExcludePatterns) + `
  recursive: true

  # Number of files analyzed in parallel (0 = CPU count)
  workers: 0
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# cflow configuration (minimal)
# See full options: https://github.com/cflow-tools/cflow

policy:
  require_static_bound: true
  forbid_dead_code: false

analysis:
  include_patterns: ["**/*.c"]
  exclude_patterns: [".git", "build"]
`
}

// formatYAMLArray formats a string slice as an inline YAML array
func formatYAMLArray(items []string) string {
	if len(items) == 0 {
		return "[]"
	}

	result := "["
	for i, item := range items {
		result += `"` + item + `"`
		if i < len(items)-1 {
			result += ", "
		}
	}
	result += "]"
	return result
}
