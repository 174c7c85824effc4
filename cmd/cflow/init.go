package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cflow-tools/cflow/internal/config"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a cflow configuration file",
		Long: `Generate a documented cflow configuration file with sensible defaults.

By default, creates cflow.yaml in the current directory with full
documentation. Use --interactive for a guided setup wizard.

Examples:
  # Create cflow.yaml in current directory
  cflow init

  # Custom output path
  cflow init --config custom.yaml

  # Overwrite existing file
  cflow init --force

  # Generate smaller config with essential options only
  cflow init --minimal

  # Interactive setup wizard
  cflow init --interactive
  cflow init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", "cflow.yaml",
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")

	var dialect config.DialectType = config.DialectGeneric
	var strictness config.Strictness = config.StrictnessStandard

	// Run interactive setup if requested
	if interactive {
		var err error
		var interactiveConfigPath string
		dialect, strictness, interactiveConfigPath, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
		configPath = interactiveConfigPath
	}

	// Check if file exists
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	// Check if parent directory exists
	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	// Generate config content
	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate(dialect, strictness)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Print success message with absolute path if possible, otherwise use relative path
	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Printf("Created %s\n", displayPath)
	fmt.Println("\nRun 'cflow analyze .' to analyze your project.")

	return nil
}

func runInteractiveSetup(defaultConfigPath string) (config.DialectType, config.Strictness, string, error) {
	fmt.Println()
	fmt.Println("cflow Configuration Setup")
	fmt.Println("=========================")
	fmt.Println()

	// Dialect selection
	dialects := []struct {
		Label       string
		Description string
		Value       config.DialectType
	}{
		{"Generic C", "Regular C sources, standard layout", config.DialectGeneric},
		{"Synthesis target", "Hardware synthesis project with testbench dirs", config.DialectSynthesis},
	}

	dialectTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	dialectPrompt := promptui.Select{
		Label:     "What kind of project is this?",
		Items:     dialects,
		Templates: dialectTemplates,
	}

	dialectIdx, _, err := dialectPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("dialect selection cancelled: %w", err)
	}
	selectedDialect := dialects[dialectIdx].Value

	fmt.Println()

	// Strictness selection
	strictnessLevels := []struct {
		Label       string
		Description string
		Value       config.Strictness
	}{
		{"Standard (recommended)", "Static loop bounds required", config.StrictnessStandard},
		{"Relaxed", "Unbounded loops allowed, report only", config.StrictnessRelaxed},
		{"Strict", "Bounds plus dead code and complexity limits", config.StrictnessStrict},
	}

	strictnessTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	strictnessPrompt := promptui.Select{
		Label:     "How strict should the policy be?",
		Items:     strictnessLevels,
		Templates: strictnessTemplates,
	}

	strictnessIdx, _, err := strictnessPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("strictness selection cancelled: %w", err)
	}
	selectedStrictness := strictnessLevels[strictnessIdx].Value

	fmt.Println()

	// Output path prompt
	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}

	outputPath, err := outputPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("output path input cancelled: %w", err)
	}

	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", outputPath)

	return selectedDialect, selectedStrictness, outputPath, nil
}
