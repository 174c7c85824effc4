package analyzer

import (
	"fmt"
	"sort"

	"github.com/cflow-tools/cflow/internal/config"
	"github.com/cflow-tools/cflow/internal/parser"
)

// LegalityChecker decides accept/reject for completed CFGs under a dialect
// policy. All dialect restrictions live here: the CFG builder never knows
// why a program might be rejected. Violations never block CFG assembly,
// only acceptance.
type LegalityChecker struct {
	policy *config.PolicyConfig
}

// NewLegalityChecker creates a checker for the given policy. A nil policy
// uses the default dialect policy.
func NewLegalityChecker(policy *config.PolicyConfig) *LegalityChecker {
	if policy == nil {
		defaultPolicy := config.DefaultConfig().Policy
		policy = &defaultPolicy
	}
	return &LegalityChecker{policy: policy}
}

// Check runs every configured rule over one function's CFG and returns the
// violations ordered by source location. An empty result means the function
// is accepted.
func (lc *LegalityChecker) Check(cfg *CFG) []*Violation {
	if cfg == nil {
		return nil
	}

	violations := make([]*Violation, 0, len(cfg.Violations))

	// Structural violations recorded during the build
	violations = append(violations, cfg.Violations...)

	violations = append(violations, lc.checkUnsupportedConstructs(cfg)...)

	if lc.policy.RequireStaticBound {
		violations = append(violations, lc.checkLoopBounds(cfg)...)
	}

	if lc.policy.ForbidDeadCode {
		violations = append(violations, lc.checkDeadCode(cfg)...)
	}

	if lc.policy.MaxComplexity > 0 {
		violations = append(violations, lc.checkComplexity(cfg)...)
	}

	SortViolations(violations)
	return violations
}

// CheckAll checks every function of a translation unit, in deterministic
// order
func (lc *LegalityChecker) CheckAll(cfgs map[string]*CFG) []*Violation {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	var violations []*Violation
	for _, name := range names {
		violations = append(violations, lc.Check(cfgs[name])...)
	}

	SortViolations(violations)
	return violations
}

// checkUnsupportedConstructs rejects constructs outside the dialect that
// were lowered as opaque payload: switch, goto and labels
func (lc *LegalityChecker) checkUnsupportedConstructs(cfg *CFG) []*Violation {
	var violations []*Violation

	for _, id := range cfg.BlockIDs() {
		for _, stmt := range cfg.Blocks[id].Statements {
			keyword := ""
			switch stmt.Type {
			case parser.NodeSwitchStatement:
				keyword = "switch"
			case parser.NodeGotoStatement:
				keyword = "goto"
			case parser.NodeLabeledStatement:
				keyword = "label"
			default:
				continue
			}
			violations = append(violations, &Violation{
				Kind:     ViolationUnsupportedConstruct,
				Function: cfg.Name,
				Message:  fmt.Sprintf("%q is not supported by this dialect", keyword),
				Location: stmt.Location,
			})
		}
	}

	return violations
}

// checkLoopBounds rejects loops with no statically provable iteration bound
func (lc *LegalityChecker) checkLoopBounds(cfg *CFG) []*Violation {
	var violations []*Violation

	boundAnalyzer := NewLoopBoundAnalyzer()
	for _, loop := range cfg.Loops {
		bound := boundAnalyzer.Analyze(loop)
		if bound.Bounded {
			continue
		}
		violations = append(violations, &Violation{
			Kind:     ViolationUnboundedLoop,
			Function: cfg.Name,
			Message:  fmt.Sprintf("%s loop has no statically provable bound: %s", loop.Kind, bound.Reason),
			Location: loop.Node.Location,
		})
	}

	return violations
}

// checkDeadCode promotes dead-code findings to violations
func (lc *LegalityChecker) checkDeadCode(cfg *CFG) []*Violation {
	var violations []*Violation

	result := NewDeadCodeDetector(cfg).Detect()
	for _, finding := range result.Findings {
		violations = append(violations, &Violation{
			Kind:     ViolationDeadCode,
			Function: cfg.Name,
			Message:  finding.Description,
			Location: parser.Location{
				File:      lc.findingFile(cfg),
				StartLine: finding.StartLine,
				EndLine:   finding.EndLine,
			},
		})
	}

	return violations
}

// checkComplexity rejects functions above the configured complexity limit
func (lc *LegalityChecker) checkComplexity(cfg *CFG) []*Violation {
	result := CalculateComplexity(cfg)
	if result.Complexity <= lc.policy.MaxComplexity {
		return nil
	}

	var location parser.Location
	if cfg.FunctionNode != nil {
		location = cfg.FunctionNode.Location
	}
	return []*Violation{{
		Kind:     ViolationComplexity,
		Function: cfg.Name,
		Message: fmt.Sprintf("cyclomatic complexity %d exceeds limit %d",
			result.Complexity, lc.policy.MaxComplexity),
		Location: location,
	}}
}

func (lc *LegalityChecker) findingFile(cfg *CFG) string {
	if cfg.FunctionNode != nil {
		return cfg.FunctionNode.Location.File
	}
	return ""
}
