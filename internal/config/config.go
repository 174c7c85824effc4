package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cflow-tools/cflow/internal/constants"
	"github.com/spf13/viper"
)

// Default dead code detection settings
const (
	// DefaultDeadCodeMinSeverity defines the minimum severity level to report
	DefaultDeadCodeMinSeverity = "warning"
)

// Config represents the main configuration structure
type Config struct {
	// Policy holds the dialect legality policy
	Policy PolicyConfig `json:"policy" mapstructure:"policy" yaml:"policy"`

	// DeadCode holds dead code detection configuration
	DeadCode DeadCodeConfig `json:"deadCode" mapstructure:"dead_code" yaml:"dead_code"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Analysis holds general analysis configuration
	Analysis AnalysisConfig `json:"analysis,omitempty" mapstructure:"analysis" yaml:"analysis"`
}

// PolicyConfig holds the dialect rules the legality checker enforces.
// The CFG builder never consults these: construction is policy-agnostic.
type PolicyConfig struct {
	// RequireStaticBound rejects loops with no statically provable
	// iteration bound (a while(1) escape hatch via break does not count)
	RequireStaticBound bool `json:"requireStaticBound" mapstructure:"require_static_bound" yaml:"require_static_bound"`

	// ForbidDeadCode promotes unreachable-code findings to violations
	ForbidDeadCode bool `json:"forbidDeadCode" mapstructure:"forbid_dead_code" yaml:"forbid_dead_code"`

	// MaxComplexity is the maximum allowed cyclomatic complexity per
	// function. 0 means no limit.
	MaxComplexity int `json:"maxComplexity" mapstructure:"max_complexity" yaml:"max_complexity"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to show per-function CFG details
	ShowDetails bool `json:"showDetails" mapstructure:"show_details" yaml:"show_details"`

	// Directory specifies the output directory for reports (empty = stdout)
	Directory string `json:"directory" mapstructure:"directory" yaml:"directory"`
}

// DeadCodeConfig holds configuration for dead code reporting
type DeadCodeConfig struct {
	// Enabled controls whether dead code findings are reported at all
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// MinSeverity is the minimum severity level to report
	MinSeverity string `json:"minSeverity" mapstructure:"min_severity" yaml:"min_severity"`
}

// AnalysisConfig holds general analysis configuration
type AnalysisConfig struct {
	// IncludePatterns specifies file patterns to include
	IncludePatterns []string `json:"includePatterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude
	ExcludePatterns []string `json:"excludePatterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether to analyze directories recursively
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`

	// Workers is the number of files analyzed in parallel (0 = CPU count)
	Workers int `json:"workers" mapstructure:"workers" yaml:"workers"`
}

// DefaultConfig returns the default configuration. The default dialect
// requires every loop to have a static bound, the restriction
// hardware-synthesis style toolchains impose.
func DefaultConfig() *Config {
	return &Config{
		Policy: PolicyConfig{
			RequireStaticBound: true,
			ForbidDeadCode:     false,
			MaxComplexity:      0,
		},
		DeadCode: DeadCodeConfig{
			Enabled:     true,
			MinSeverity: DefaultDeadCodeMinSeverity,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{"**/*.c"},
			ExcludePatterns: []string{
				".git",
				"build",
				"out",
				"vendor",
			},
			Recursive: true,
			Workers:   0,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context: when no
// explicit path is given, discovery walks up from the analyzed path.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Fresh viper instance to avoid shared global state
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for configuration files in common locations,
// starting from the analyzed path and walking upward, then falling back to
// the working directory and XDG locations.
func findDefaultConfig(targetPath string) string {
	candidates := []string{
		constants.ConfigFileName,
		"cflow.yml",
		".cflow.yaml",
		".cflow.yml",
		"cflow.json",
		".cflow.json",
	}

	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}
				if parent := filepath.Dir(dir); parent == dir {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), candidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", constants.ToolName)
		if config := searchConfigInDirectory(configDir, candidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Policy.MaxComplexity < 0 {
		return fmt.Errorf("policy.max_complexity must be >= 0, got %d", c.Policy.MaxComplexity)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml", c.Output.Format)
	}

	validSeverities := map[string]bool{
		"critical": true,
		"warning":  true,
		"info":     true,
	}
	if !validSeverities[c.DeadCode.MinSeverity] {
		return fmt.Errorf("invalid dead_code.min_severity '%s', must be one of: critical, warning, info", c.DeadCode.MinSeverity)
	}

	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}

	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must be >= 0, got %d", c.Analysis.Workers)
	}

	return nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("policy", config.Policy)
	v.Set("dead_code", config.DeadCode)
	v.Set("output", config.Output)
	v.Set("analysis", config.Analysis)

	return v.WriteConfig()
}
