package service

import (
	"github.com/cflow-tools/cflow/domain"
	"github.com/cflow-tools/cflow/internal/config"
)

// ConfigurationLoaderImpl loads configuration and converts it into requests
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return cfg, nil
}

// LoadConfigForTarget loads configuration, discovering project config files
// by walking up from the analyzed path when no explicit path is given
func (c *ConfigurationLoaderImpl) LoadConfigForTarget(configPath, targetPath string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(configPath, targetPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return cfg, nil
}

// ToAnalyzeRequest converts a loaded config into a base analyze request.
// Paths are set by the caller, not from config.
func (c *ConfigurationLoaderImpl) ToAnalyzeRequest(cfg *config.Config) *domain.AnalyzeRequest {
	return &domain.AnalyzeRequest{
		Paths:           []string{},
		OutputFormat:    domain.OutputFormat(cfg.Output.Format),
		ShowDetails:     cfg.Output.ShowDetails,
		Recursive:       cfg.Analysis.Recursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
	}
}

// MergeAnalyzeRequest merges CLI flag values over a config-derived base
func (c *ConfigurationLoaderImpl) MergeAnalyzeRequest(base, override *domain.AnalyzeRequest) *domain.AnalyzeRequest {
	merged := *base

	// Paths always come from command arguments
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}
	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.ShowDetails {
		merged.ShowDetails = true
	}
	if override.SortBy != "" {
		merged.SortBy = override.SortBy
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}
	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}
	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = override.ExcludePatterns
	}
	if override.NoProgress {
		merged.NoProgress = true
	}

	return &merged
}
