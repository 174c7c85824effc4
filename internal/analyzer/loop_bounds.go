package analyzer

import (
	"strconv"

	"github.com/cflow-tools/cflow/internal/parser"
)

// BoundKind classifies how a loop's iteration bound was established
type BoundKind int

const (
	// BoundNone means no static bound could be proven
	BoundNone BoundKind = iota

	// BoundConstantFalse is a constant-false condition: the loop body runs
	// at most once (do-while) or never (while/for)
	BoundConstantFalse

	// BoundCounted is a canonical counted for-loop: constant init, literal
	// comparison bound, unit step on the same variable
	BoundCounted

	// BoundComparison is a condition comparing a variable against a
	// literal, accepted as bounded by the conservative heuristic
	BoundComparison
)

// String returns a string representation of the bound kind
func (k BoundKind) String() string {
	switch k {
	case BoundConstantFalse:
		return "constant-false"
	case BoundCounted:
		return "counted"
	case BoundComparison:
		return "comparison"
	default:
		return "none"
	}
}

// LoopBound is the result of static bound analysis for one loop
type LoopBound struct {
	Bounded bool
	Kind    BoundKind
	Reason  string
}

var comparisonOps = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "!=": true, "==": true,
}

// LoopBoundAnalyzer decides whether a loop has a statically provable
// iteration bound. The analysis is deliberately conservative: anything it
// does not recognize is unbounded. A constant-true condition (while(1)) is
// never bounded, even when the body contains a break.
type LoopBoundAnalyzer struct{}

// NewLoopBoundAnalyzer creates a new loop bound analyzer
func NewLoopBoundAnalyzer() *LoopBoundAnalyzer {
	return &LoopBoundAnalyzer{}
}

// Analyze determines the static bound of a single lowered loop
func (a *LoopBoundAnalyzer) Analyze(loop *LoopInfo) LoopBound {
	cond := loop.Cond()

	if cond == nil {
		return LoopBound{Kind: BoundNone, Reason: "loop has no condition"}
	}

	if truth, isConst := constantTruth(cond); isConst {
		if !truth {
			return LoopBound{Bounded: true, Kind: BoundConstantFalse, Reason: "condition is constant false"}
		}
		return LoopBound{Kind: BoundNone, Reason: "condition is constant true"}
	}

	if loop.Kind == LoopFor && a.isCanonicalCounted(loop.Node, cond) {
		return LoopBound{Bounded: true, Kind: BoundCounted, Reason: "canonical counted loop"}
	}

	if a.isLiteralComparison(cond) {
		return LoopBound{Bounded: true, Kind: BoundComparison, Reason: "condition compares against a literal"}
	}

	return LoopBound{Kind: BoundNone, Reason: "no recognizable bound"}
}

// isCanonicalCounted recognizes for(v = C0; v cmp C1; v++/v--/v += C2)
// shapes, with the same variable in all three clauses
func (a *LoopBoundAnalyzer) isCanonicalCounted(node *parser.Node, cond *parser.Node) bool {
	if node == nil || node.Init == nil || node.Update == nil {
		return false
	}

	initVar := inductionVarFromInit(node.Init)
	if initVar == "" {
		return false
	}

	if cond.Type != parser.NodeBinaryExpression || !comparisonOps[cond.Operator] {
		return false
	}
	condVar, ok := comparedVariable(cond)
	if !ok || condVar != initVar {
		return false
	}

	return updatesVariable(node.Update.InnerExpression(), initVar)
}

// isLiteralComparison recognizes a comparison of an identifier against a
// number literal, in either operand order
func (a *LoopBoundAnalyzer) isLiteralComparison(cond *parser.Node) bool {
	if cond.Type != parser.NodeBinaryExpression || !comparisonOps[cond.Operator] {
		return false
	}
	_, ok := comparedVariable(cond)
	return ok
}

// constantTruth evaluates a condition that is a bare number literal
func constantTruth(cond *parser.Node) (truth bool, isConst bool) {
	if cond == nil || cond.Type != parser.NodeNumberLiteral {
		return false, false
	}
	value, err := strconv.ParseInt(cond.Raw, 0, 64)
	if err != nil {
		return false, false
	}
	return value != 0, true
}

// inductionVarFromInit extracts the variable a for-initializer assigns a
// constant to. Handles both `int i = 0` declarations and `i = 0`
// assignments.
func inductionVarFromInit(init *parser.Node) string {
	switch init.Type {
	case parser.NodeDeclaration:
		if init.Value != nil && isNumber(init.Value) {
			return init.Name
		}
	case parser.NodeExpressionStatement:
		if init.Argument != nil {
			return inductionVarFromInit(init.Argument)
		}
	case parser.NodeAssignmentExpression:
		if init.Operator == "=" && init.Left != nil &&
			init.Left.Type == parser.NodeIdentifier && isNumber(init.Right) {
			return init.Left.Name
		}
	}
	return ""
}

// comparedVariable returns the identifier side of an identifier-vs-literal
// comparison
func comparedVariable(cond *parser.Node) (string, bool) {
	left := cond.Left.InnerExpression()
	right := cond.Right.InnerExpression()

	if left != nil && left.Type == parser.NodeIdentifier && isNumber(right) {
		return left.Name, true
	}
	if right != nil && right.Type == parser.NodeIdentifier && isNumber(left) {
		return right.Name, true
	}
	return "", false
}

// updatesVariable recognizes v++, v--, ++v, --v, v += C and v -= C
func updatesVariable(update *parser.Node, name string) bool {
	if update == nil {
		return false
	}
	switch update.Type {
	case parser.NodeUpdateExpression:
		arg := update.Argument.InnerExpression()
		return arg != nil && arg.Type == parser.NodeIdentifier && arg.Name == name
	case parser.NodeAssignmentExpression:
		if update.Operator != "+=" && update.Operator != "-=" {
			return false
		}
		left := update.Left.InnerExpression()
		return left != nil && left.Type == parser.NodeIdentifier &&
			left.Name == name && isNumber(update.Right)
	}
	return false
}

// isNumber reports whether a node is a number literal (under parentheses)
func isNumber(n *parser.Node) bool {
	if n == nil {
		return false
	}
	inner := n.InnerExpression()
	return inner != nil && inner.Type == parser.NodeNumberLiteral
}
