package analyzer

import (
	"fmt"

	"github.com/cflow-tools/cflow/internal/parser"
)

// Default risk thresholds for cyclomatic complexity
const (
	DefaultLowComplexityThreshold    = 9
	DefaultMediumComplexityThreshold = 19
)

// ComplexityResult holds cyclomatic complexity metrics for one function
type ComplexityResult struct {
	Complexity     int    `json:"complexity"`
	Edges          int    `json:"edges"`
	Nodes          int    `json:"nodes"`
	FunctionName   string `json:"function_name"`
	StartLine      int    `json:"start_line"`
	EndLine        int    `json:"end_line"`
	NestingDepth   int    `json:"nesting_depth"`
	IfStatements   int    `json:"if_statements"`
	LoopStatements int    `json:"loop_statements"`
	RiskLevel      string `json:"risk_level"`
}

func (cr *ComplexityResult) String() string {
	return fmt.Sprintf("Function: %s, Complexity: %d, Risk: %s",
		cr.FunctionName, cr.Complexity, cr.RiskLevel)
}

// CalculateComplexity computes McCabe cyclomatic complexity (E - N + 2) over
// a completed CFG, using the default risk thresholds
func CalculateComplexity(cfg *CFG) *ComplexityResult {
	return CalculateComplexityWithThresholds(cfg,
		DefaultLowComplexityThreshold, DefaultMediumComplexityThreshold)
}

// CalculateComplexityWithThresholds computes McCabe cyclomatic complexity
// with caller-provided risk thresholds
func CalculateComplexityWithThresholds(cfg *CFG, lowThreshold, mediumThreshold int) *ComplexityResult {
	if cfg == nil {
		return &ComplexityResult{Complexity: 0, RiskLevel: "low"}
	}

	nodes := cfg.BlockCount()
	edges := cfg.EdgeCount()

	complexity := edges - nodes + 2
	if complexity < 1 {
		complexity = 1
	}

	result := &ComplexityResult{
		Complexity:   complexity,
		Edges:        edges,
		Nodes:        nodes,
		FunctionName: cfg.Name,
		RiskLevel:    determineRiskLevel(complexity, lowThreshold, mediumThreshold),
	}

	if fn := cfg.FunctionNode; fn != nil {
		result.StartLine = fn.Location.StartLine
		result.EndLine = fn.Location.EndLine
		result.NestingDepth = CalculateNestingDepth(fn)
		fn.Walk(func(n *parser.Node) bool {
			switch n.Type {
			case parser.NodeIfStatement:
				result.IfStatements++
			case parser.NodeWhileStatement, parser.NodeDoWhileStatement, parser.NodeForStatement:
				result.LoopStatements++
			}
			return true
		})
	}

	return result
}

func determineRiskLevel(complexity, lowThreshold, mediumThreshold int) string {
	if complexity > mediumThreshold {
		return "high"
	} else if complexity > lowThreshold {
		return "medium"
	}
	return "low"
}

// CalculateNestingDepth calculates the maximum control-structure nesting
// depth of a function body
func CalculateNestingDepth(node *parser.Node) int {
	if node == nil {
		return 0
	}

	maxDepth := 0
	var walk func(n *parser.Node, depth int)
	walk = func(n *parser.Node, depth int) {
		if n == nil {
			return
		}
		if isControlStructure(n) {
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		}
		for _, stmt := range n.Body {
			walk(stmt, depth)
		}
		walk(n.Consequent, depth)
		walk(n.Alternate, depth)
	}
	walk(node, 0)

	return maxDepth
}

func isControlStructure(node *parser.Node) bool {
	switch node.Type {
	case parser.NodeIfStatement, parser.NodeSwitchStatement,
		parser.NodeForStatement, parser.NodeWhileStatement,
		parser.NodeDoWhileStatement:
		return true
	}
	return false
}
