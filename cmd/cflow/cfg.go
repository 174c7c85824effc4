package main

import (
	"fmt"
	"os"

	"github.com/cflow-tools/cflow/internal/analyzer"
	"github.com/cflow-tools/cflow/internal/parser"
	"github.com/cflow-tools/cflow/service"
	"github.com/spf13/cobra"
)

var (
	cfgRankDir      string
	cfgNoLegend     bool
	cfgNoStatements bool
	cfgOutputPath   string
	cfgFunction     string
)

func cfgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cfg [file]",
		Short: "Export control flow graphs as Graphviz DOT",
		Long: `Build control flow graphs for every function in a C file and write
them as Graphviz DOT digraphs.

Examples:
  cflow cfg main.c
  cflow cfg --function entry main.c
  cflow cfg --rankdir LR -o graphs.dot main.c
  cflow cfg main.c | dot -Tsvg -o main.svg`,
		Args: cobra.ExactArgs(1),
		RunE: runCFG,
	}

	cmd.Flags().StringVar(&cfgRankDir, "rankdir", "TB",
		"Graph layout direction: TB, LR, BT, RL")
	cmd.Flags().BoolVar(&cfgNoLegend, "no-legend", false,
		"Don't emit the edge style legend")
	cmd.Flags().BoolVar(&cfgNoStatements, "no-statements", false,
		"Label blocks with IDs only, without statements")
	cmd.Flags().StringVarP(&cfgOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().StringVar(&cfgFunction, "function", "",
		"Only export the named function")

	return cmd
}

func runCFG(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	source, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	ast, err := parser.ParseSource(filePath, source)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	cfgs, err := analyzer.NewCFGBuilder().BuildAll(ast)
	if err != nil {
		return fmt.Errorf("failed to build control flow graphs: %w", err)
	}
	if len(cfgs) == 0 {
		return fmt.Errorf("no function definitions found in %s", filePath)
	}

	if cfgFunction != "" {
		cfg, ok := cfgs[cfgFunction]
		if !ok {
			return fmt.Errorf("function %q not found in %s", cfgFunction, filePath)
		}
		cfgs = map[string]*analyzer.CFG{cfgFunction: cfg}
	}

	formatterConfig := service.DefaultDOTFormatterConfig()
	formatterConfig.RankDir = cfgRankDir
	formatterConfig.ShowLegend = !cfgNoLegend
	formatterConfig.ShowStatements = !cfgNoStatements
	formatter := service.NewDOTFormatter(formatterConfig)

	writer := os.Stdout
	if cfgOutputPath != "" {
		file, err := os.Create(cfgOutputPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", cfgOutputPath, err)
		}
		defer file.Close()
		writer = file
	}

	return formatter.WriteAll(cfgs, writer)
}
