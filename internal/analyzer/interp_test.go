package analyzer

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/cflow-tools/cflow/internal/parser"
	"github.com/cflow-tools/cflow/internal/testutil"
)

// cfgInterpreter executes a lowered CFG directly, so tests can check that
// lowering preserved the source semantics (which indices a loop writes,
// whether a loop terminates) instead of only inspecting graph shape.
type cfgInterpreter struct {
	cfg    *CFG
	vars   map[string]int64
	arrays map[string]map[int64]int64
	steps  int
}

const maxInterpSteps = 10000

func newCFGInterpreter(cfg *CFG) *cfgInterpreter {
	return &cfgInterpreter{
		cfg:    cfg,
		vars:   make(map[string]int64),
		arrays: make(map[string]map[int64]int64),
	}
}

// run executes from the entry block until a return terminator or the step
// limit, which catches lowerings that loop forever
func (in *cfgInterpreter) run() error {
	block := in.cfg.Entry
	for {
		in.steps++
		if in.steps > maxInterpSteps {
			return fmt.Errorf("execution did not terminate within %d steps", maxInterpSteps)
		}

		for _, stmt := range block.Statements {
			if err := in.execStatement(stmt); err != nil {
				return err
			}
		}

		term := block.Terminator
		if term == nil {
			return fmt.Errorf("block %s has no terminator", block.ID)
		}

		switch term.Kind {
		case TermReturn:
			return nil
		case TermFallthrough:
			block = term.Target
		case TermBranch:
			truth, err := in.evalExpr(term.Cond)
			if err != nil {
				return err
			}
			if truth != 0 {
				block = term.Then
			} else {
				block = term.Else
			}
		case TermUnreachable:
			return fmt.Errorf("executed unreachable block %s", block.ID)
		}
	}
}

func (in *cfgInterpreter) execStatement(stmt *parser.Node) error {
	switch stmt.Type {
	case parser.NodeDeclaration:
		if stmt.Value != nil {
			value, err := in.evalExpr(stmt.Value)
			if err != nil {
				return err
			}
			in.vars[stmt.Name] = value
		} else {
			in.vars[stmt.Name] = 0
		}
		return nil
	case parser.NodeExpressionStatement:
		if stmt.Argument == nil {
			return nil
		}
		_, err := in.evalExpr(stmt.Argument)
		return err
	case parser.NodeReturnStatement, parser.NodeBreakStatement, parser.NodeContinueStatement:
		// Control transfer is carried by the terminator
		return nil
	default:
		// Bare expression payload (for-loop initializers and steps)
		_, err := in.evalExpr(stmt)
		return err
	}
}

func (in *cfgInterpreter) evalExpr(expr *parser.Node) (int64, error) {
	if expr == nil {
		return 0, fmt.Errorf("cannot evaluate nil expression")
	}

	switch expr.Type {
	case parser.NodeParenExpression:
		return in.evalExpr(expr.Argument)
	case parser.NodeNumberLiteral:
		return strconv.ParseInt(expr.Raw, 0, 64)
	case parser.NodeIdentifier:
		return in.vars[expr.Name], nil
	case parser.NodeSubscriptExpression:
		name, index, err := in.subscriptTarget(expr)
		if err != nil {
			return 0, err
		}
		return in.arrays[name][index], nil
	case parser.NodeBinaryExpression:
		return in.evalBinary(expr)
	case parser.NodeUnaryExpression:
		value, err := in.evalExpr(expr.Argument)
		if err != nil {
			return 0, err
		}
		switch expr.Operator {
		case "-":
			return -value, nil
		case "+":
			return value, nil
		case "!":
			return boolToInt(value == 0), nil
		}
		return 0, fmt.Errorf("unsupported unary operator %q", expr.Operator)
	case parser.NodeUpdateExpression:
		return in.evalUpdate(expr)
	case parser.NodeAssignmentExpression:
		return in.evalAssignment(expr)
	case parser.NodeCommaExpression:
		if _, err := in.evalExpr(expr.Left); err != nil {
			return 0, err
		}
		return in.evalExpr(expr.Right)
	}
	return 0, fmt.Errorf("unsupported expression %s", expr.Type)
}

func (in *cfgInterpreter) evalBinary(expr *parser.Node) (int64, error) {
	left, err := in.evalExpr(expr.Left)
	if err != nil {
		return 0, err
	}

	// Short circuit
	switch expr.Operator {
	case "&&":
		if left == 0 {
			return 0, nil
		}
		right, err := in.evalExpr(expr.Right)
		if err != nil {
			return 0, err
		}
		return boolToInt(right != 0), nil
	case "||":
		if left != 0 {
			return 1, nil
		}
		right, err := in.evalExpr(expr.Right)
		if err != nil {
			return 0, err
		}
		return boolToInt(right != 0), nil
	}

	right, err := in.evalExpr(expr.Right)
	if err != nil {
		return 0, err
	}

	switch expr.Operator {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	case "%":
		if right == 0 {
			return 0, fmt.Errorf("modulo by zero")
		}
		return left % right, nil
	case "<":
		return boolToInt(left < right), nil
	case "<=":
		return boolToInt(left <= right), nil
	case ">":
		return boolToInt(left > right), nil
	case ">=":
		return boolToInt(left >= right), nil
	case "==":
		return boolToInt(left == right), nil
	case "!=":
		return boolToInt(left != right), nil
	}
	return 0, fmt.Errorf("unsupported binary operator %q", expr.Operator)
}

func (in *cfgInterpreter) evalUpdate(expr *parser.Node) (int64, error) {
	arg := expr.Argument.InnerExpression()
	if arg == nil || arg.Type != parser.NodeIdentifier {
		return 0, fmt.Errorf("unsupported update target")
	}

	old := in.vars[arg.Name]
	switch expr.Operator {
	case "++":
		in.vars[arg.Name] = old + 1
	case "--":
		in.vars[arg.Name] = old - 1
	default:
		return 0, fmt.Errorf("unsupported update operator %q", expr.Operator)
	}
	return old, nil
}

func (in *cfgInterpreter) evalAssignment(expr *parser.Node) (int64, error) {
	value, err := in.evalExpr(expr.Right)
	if err != nil {
		return 0, err
	}

	target := expr.Left.InnerExpression()
	if target == nil {
		return 0, fmt.Errorf("assignment has no target")
	}

	switch target.Type {
	case parser.NodeIdentifier:
		switch expr.Operator {
		case "=":
			in.vars[target.Name] = value
		case "+=":
			in.vars[target.Name] += value
		case "-=":
			in.vars[target.Name] -= value
		default:
			return 0, fmt.Errorf("unsupported assignment operator %q", expr.Operator)
		}
		return in.vars[target.Name], nil
	case parser.NodeSubscriptExpression:
		name, index, err := in.subscriptTarget(target)
		if err != nil {
			return 0, err
		}
		if expr.Operator != "=" {
			return 0, fmt.Errorf("unsupported assignment operator %q on subscript", expr.Operator)
		}
		if in.arrays[name] == nil {
			in.arrays[name] = make(map[int64]int64)
		}
		in.arrays[name][index] = value
		return value, nil
	}
	return 0, fmt.Errorf("unsupported assignment target %s", target.Type)
}

func (in *cfgInterpreter) subscriptTarget(expr *parser.Node) (string, int64, error) {
	base := expr.Argument.InnerExpression()
	if base == nil || base.Type != parser.NodeIdentifier {
		return "", 0, fmt.Errorf("unsupported subscript base")
	}
	index, err := in.evalExpr(expr.Index)
	if err != nil {
		return "", 0, err
	}
	return base.Name, index, nil
}

// writtenIndices returns the sorted-set view of indices written to an array
func (in *cfgInterpreter) writtenIndices(array string) map[int64]int64 {
	return in.arrays[array]
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// buildCFG parses a single-function source and lowers it
func buildCFG(t *testing.T, source string) *CFG {
	t.Helper()

	ast := testutil.CreateTestAST(t, source)

	var fn *parser.Node
	for _, child := range ast.Body {
		if child.Type == parser.NodeFunctionDefinition {
			fn = child
			break
		}
	}
	if fn == nil {
		t.Fatal("Source has no function definition")
	}

	cfg, err := NewCFGBuilder().Build(fn)
	if err != nil {
		t.Fatalf("Failed to build CFG: %v", err)
	}
	return cfg
}

// runCFG builds and executes a function body, failing the test on any
// interpreter error
func runCFG(t *testing.T, source string) *cfgInterpreter {
	t.Helper()

	cfg := buildCFG(t, source)
	interp := newCFGInterpreter(cfg)
	if err := interp.run(); err != nil {
		t.Fatalf("Execution failed: %v", err)
	}
	return interp
}
