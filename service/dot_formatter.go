package service

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cflow-tools/cflow/internal/analyzer"
	"github.com/cflow-tools/cflow/internal/parser"
	"github.com/cflow-tools/cflow/internal/version"
)

// DOTFormatterConfig configures the DOT formatter behavior
type DOTFormatterConfig struct {
	// ShowStatements includes statement summaries in block labels
	ShowStatements bool

	// ShowLegend includes a legend subgraph
	ShowLegend bool

	// HighlightLoops colors loop headers and step blocks
	HighlightLoops bool

	// RankDir is the layout direction: TB, LR, BT, RL
	RankDir string
}

// DefaultDOTFormatterConfig returns a DOTFormatterConfig with sensible defaults
func DefaultDOTFormatterConfig() *DOTFormatterConfig {
	return &DOTFormatterConfig{
		ShowStatements: true,
		ShowLegend:     true,
		HighlightLoops: true,
		RankDir:        "TB",
	}
}

// DOTFormatter formats control flow graphs as DOT for Graphviz
type DOTFormatter struct {
	config *DOTFormatterConfig
}

// NewDOTFormatter creates a new DOT formatter with the given configuration
func NewDOTFormatter(config *DOTFormatterConfig) *DOTFormatter {
	if config == nil {
		config = DefaultDOTFormatterConfig()
	}
	return &DOTFormatter{config: config}
}

// edgeStyles defines the visual style for edges based on edge type.
// This is effectively a constant map and should not be modified at runtime.
var edgeStyles = map[analyzer.EdgeType]struct {
	style string
	color string
	label string
}{
	analyzer.EdgeNormal:    {style: "solid", color: "black", label: ""},
	analyzer.EdgeCondTrue:  {style: "solid", color: "#228B22", label: "true"},
	analyzer.EdgeCondFalse: {style: "solid", color: "#DC143C", label: "false"},
	analyzer.EdgeLoop:      {style: "dashed", color: "#1E90FF", label: "loop"},
	analyzer.EdgeBreak:     {style: "bold", color: "#FF8C00", label: "break"},
	analyzer.EdgeContinue:  {style: "bold", color: "#9932CC", label: "continue"},
	analyzer.EdgeReturn:    {style: "dotted", color: "black", label: "return"},
}

// validRankDirs contains the valid Graphviz rank directions
var validRankDirs = map[string]bool{
	"TB": true, // Top to Bottom
	"LR": true, // Left to Right
	"BT": true, // Bottom to Top
	"RL": true, // Right to Left
}

// FormatCFG formats a single function CFG as DOT and returns the string
func (f *DOTFormatter) FormatCFG(cfg *analyzer.CFG) (string, error) {
	var sb strings.Builder
	if err := f.WriteCFG(cfg, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteCFG writes a single function CFG as DOT to the writer
func (f *DOTFormatter) WriteCFG(cfg *analyzer.CFG, writer io.Writer) error {
	if cfg == nil {
		return fmt.Errorf("nil CFG")
	}
	if !validRankDirs[f.config.RankDir] {
		return fmt.Errorf("invalid rank direction %q: must be one of TB, LR, BT, RL", f.config.RankDir)
	}

	fmt.Fprintf(writer, "/* cflow CFG %q - Generated: %s */\n", cfg.Name, time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "/* Version: %s */\n", version.GetVersion())
	fmt.Fprintf(writer, "digraph %s {\n", sanitizeID(cfg.Name))
	fmt.Fprintf(writer, "    rankdir=%s;\n", f.config.RankDir)
	fmt.Fprintln(writer, "    node [shape=box, style=filled, fontname=\"Helvetica\"];")
	fmt.Fprintln(writer, "    edge [fontname=\"Helvetica\", fontsize=10];")
	fmt.Fprintln(writer)

	loopBlocks := f.loopBlockRoles(cfg)

	// Sorted block IDs keep the output deterministic
	fmt.Fprintln(writer, "    // Blocks")
	for _, blockID := range cfg.BlockIDs() {
		block := cfg.Blocks[blockID]
		f.writeBlock(writer, block, loopBlocks[blockID])
	}
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "    // Edges")
	f.writeEdges(writer, cfg)

	if f.config.ShowLegend {
		fmt.Fprintln(writer)
		f.writeLegend(writer)
	}

	fmt.Fprintln(writer, "}")
	return nil
}

// WriteAll writes every CFG of a file as separate digraphs
func (f *DOTFormatter) WriteAll(cfgs map[string]*analyzer.CFG, writer io.Writer) error {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if i > 0 {
			fmt.Fprintln(writer)
		}
		if err := f.WriteCFG(cfgs[name], writer); err != nil {
			return err
		}
	}
	return nil
}

// loopBlockRoles maps block IDs to their loop role for highlighting
func (f *DOTFormatter) loopBlockRoles(cfg *analyzer.CFG) map[string]string {
	roles := make(map[string]string)
	if !f.config.HighlightLoops {
		return roles
	}
	for _, loop := range cfg.Loops {
		if loop.Header != nil {
			roles[loop.Header.ID] = "header"
		}
		if loop.Step != nil {
			roles[loop.Step.ID] = "step"
		}
	}
	return roles
}

// writeBlock writes a single block node declaration
func (f *DOTFormatter) writeBlock(writer io.Writer, block *analyzer.BasicBlock, loopRole string) {
	fill := "#FFFFFF"
	border := "#333333"

	switch {
	case block.IsEntry:
		fill, border = "#90EE90", "#228B22"
	case block.IsExit:
		fill, border = "#FFB6C1", "#DC143C"
	case strings.HasPrefix(block.ID, "unreachable"):
		fill, border = "#D3D3D3", "#808080"
	case loopRole == "header":
		fill, border = "#ADD8E6", "#1E90FF"
	case loopRole == "step":
		fill, border = "#E6E6FA", "#9932CC"
	}

	label := block.ID
	if f.config.ShowStatements && len(block.Statements) > 0 {
		var parts []string
		for _, stmt := range block.Statements {
			parts = append(parts, statementLabel(stmt))
		}
		label = fmt.Sprintf("%s\\n%s", block.ID, strings.Join(parts, "\\n"))
	}

	fmt.Fprintf(writer, "    %s [label=\"%s\", fillcolor=\"%s\", color=\"%s\"];\n",
		sanitizeID(block.ID), escapeLabel(label), fill, border)
}

// writeEdges writes all edges in deterministic order
func (f *DOTFormatter) writeEdges(writer io.Writer, cfg *analyzer.CFG) {
	for _, blockID := range cfg.BlockIDs() {
		block := cfg.Blocks[blockID]
		for _, edge := range block.Successors {
			style := edgeStyles[edge.Type]
			attrs := fmt.Sprintf("style=%s, color=\"%s\"", style.style, style.color)
			if style.label != "" {
				attrs += fmt.Sprintf(", label=\"%s\"", style.label)
			}
			fmt.Fprintf(writer, "    %s -> %s [%s];\n",
				sanitizeID(edge.From.ID), sanitizeID(edge.To.ID), attrs)
		}
	}
}

// writeLegend writes the legend subgraph
func (f *DOTFormatter) writeLegend(writer io.Writer) {
	fmt.Fprintln(writer, "    // Legend")
	fmt.Fprintln(writer, "    subgraph cluster_legend {")
	fmt.Fprintln(writer, "        label=\"Legend\";")
	fmt.Fprintln(writer, "        style=dashed;")
	fmt.Fprintln(writer, "        legend_entry [label=\"entry\", fillcolor=\"#90EE90\"];")
	fmt.Fprintln(writer, "        legend_exit [label=\"exit\", fillcolor=\"#FFB6C1\"];")
	fmt.Fprintln(writer, "        legend_header [label=\"loop header\", fillcolor=\"#ADD8E6\"];")
	fmt.Fprintln(writer, "        legend_step [label=\"loop step\", fillcolor=\"#E6E6FA\"];")
	fmt.Fprintln(writer, "        legend_dead [label=\"unreachable\", fillcolor=\"#D3D3D3\"];")
	fmt.Fprintln(writer, "    }")
}

// statementLabel produces a short label for a statement node
func statementLabel(stmt *parser.Node) string {
	if stmt == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", stmt.Type, stmt.Location.StartLine)
}

// sanitizeID converts a block or function name into a valid DOT identifier
func sanitizeID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// escapeLabel escapes quotes for DOT label strings
func escapeLabel(label string) string {
	return strings.ReplaceAll(label, `"`, `\"`)
}
