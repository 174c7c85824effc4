package analyzer

import (
	"fmt"
	"sort"

	"github.com/cflow-tools/cflow/internal/parser"
)

// ViolationKind classifies why a function's control flow is rejected
type ViolationKind int

const (
	// ViolationNoEnclosingLoop is a break or continue outside any loop
	ViolationNoEnclosingLoop ViolationKind = iota

	// ViolationUnboundedLoop is a loop with no statically provable
	// iteration bound, under a policy that requires one
	ViolationUnboundedLoop

	// ViolationUnsupportedConstruct is a construct outside the dialect
	// (switch, goto, labels)
	ViolationUnsupportedConstruct

	// ViolationDeadCode is unreachable code, under a policy that forbids it
	ViolationDeadCode

	// ViolationComplexity is a function exceeding the complexity limit
	ViolationComplexity
)

// String returns a string representation of the violation kind
func (k ViolationKind) String() string {
	switch k {
	case ViolationNoEnclosingLoop:
		return "no-enclosing-loop"
	case ViolationUnboundedLoop:
		return "unbounded-loop"
	case ViolationUnsupportedConstruct:
		return "unsupported-construct"
	case ViolationDeadCode:
		return "dead-code"
	case ViolationComplexity:
		return "complexity"
	default:
		return "unknown"
	}
}

// Violation is a detected rule breach preventing acceptance of a function.
// Violations are data, never process errors: one rejected function must not
// stop analysis of its siblings.
type Violation struct {
	Kind     ViolationKind
	Function string
	Message  string
	Location parser.Location
}

// String returns a human-readable description of the violation
func (v *Violation) String() string {
	return fmt.Sprintf("%s: [%s] %s", v.Location, v.Kind, v.Message)
}

// SortViolations orders violations by location, then kind, for deterministic
// reporting
func SortViolations(violations []*Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Location.File != b.Location.File {
			return a.Location.File < b.Location.File
		}
		if a.Location.StartLine != b.Location.StartLine {
			return a.Location.StartLine < b.Location.StartLine
		}
		if a.Location.StartCol != b.Location.StartCol {
			return a.Location.StartCol < b.Location.StartCol
		}
		return a.Kind < b.Kind
	})
}
