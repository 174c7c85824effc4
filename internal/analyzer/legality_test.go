package analyzer

import (
	"testing"

	"github.com/cflow-tools/cflow/internal/config"
	"github.com/cflow-tools/cflow/internal/parser"
)

func checkSource(t *testing.T, policy *config.PolicyConfig, source string) []*Violation {
	t.Helper()

	ast, err := parser.ParseSource("test.c", []byte(source))
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}

	cfgs, err := NewCFGBuilder().BuildAll(ast)
	if err != nil {
		t.Fatalf("Failed to build CFGs: %v", err)
	}

	return NewLegalityChecker(policy).CheckAll(cfgs)
}

func hasViolation(violations []*Violation, kind ViolationKind) bool {
	for _, v := range violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

func TestDefaultPolicyRejectsUnboundedLoop(t *testing.T) {
	violations := checkSource(t, nil, `
void f(int buffer[]) {
    int i = 0;
    while (1) {
        if (i > 7) break;
        buffer[i++] = 1;
    }
}
`)

	if !hasViolation(violations, ViolationUnboundedLoop) {
		t.Fatal("Default policy must reject while(1)")
	}
}

func TestRelaxedPolicyAcceptsUnboundedLoop(t *testing.T) {
	policy := &config.PolicyConfig{RequireStaticBound: false}
	violations := checkSource(t, policy, `
void f(int buffer[]) {
    int i = 0;
    while (1) {
        if (i > 7) break;
        buffer[i++] = 1;
    }
}
`)

	if len(violations) != 0 {
		t.Errorf("Relaxed policy must accept while(1), got %v", violations)
	}
}

func TestBoundedLoopsAccepted(t *testing.T) {
	violations := checkSource(t, nil, `
void f(int buffer[]) {
    int i;
    for (i = 0; i < 8; i++) {
        buffer[i] = i;
    }
    do {
        i--;
    } while (0);
}
`)

	if len(violations) != 0 {
		t.Errorf("Expected acceptance, got %v", violations)
	}
}

func TestStructuralViolationsPropagate(t *testing.T) {
	violations := checkSource(t, &config.PolicyConfig{}, `
void f(void) {
    break;
}
`)

	if !hasViolation(violations, ViolationNoEnclosingLoop) {
		t.Fatal("Builder violations must surface through the checker")
	}
}

func TestUnsupportedConstructsRejected(t *testing.T) {
	violations := checkSource(t, &config.PolicyConfig{}, `
void f(int x) {
    goto done;
done:
    x = 0;
}
`)

	if !hasViolation(violations, ViolationUnsupportedConstruct) {
		t.Fatal("goto must be rejected by the dialect")
	}
}

func TestDeadCodePolicy(t *testing.T) {
	source := `
void f(void) {
    int i = 0;
    while (i < 3) {
        break;
        i = 99;
    }
}
`

	permissive := checkSource(t, &config.PolicyConfig{ForbidDeadCode: false}, source)
	if hasViolation(permissive, ViolationDeadCode) {
		t.Error("Dead code must stay informational when the policy allows it")
	}

	strict := checkSource(t, &config.PolicyConfig{ForbidDeadCode: true}, source)
	if !hasViolation(strict, ViolationDeadCode) {
		t.Error("forbid_dead_code must promote dead code to a violation")
	}
}

func TestComplexityPolicy(t *testing.T) {
	source := `
int f(int x) {
    if (x == 1) { return 1; }
    if (x == 2) { return 2; }
    if (x == 3) { return 3; }
    return 0;
}
`

	unlimited := checkSource(t, &config.PolicyConfig{MaxComplexity: 0}, source)
	if hasViolation(unlimited, ViolationComplexity) {
		t.Error("MaxComplexity 0 means no limit")
	}

	limited := checkSource(t, &config.PolicyConfig{MaxComplexity: 2}, source)
	if !hasViolation(limited, ViolationComplexity) {
		t.Error("Function above the complexity limit must be rejected")
	}
}

func TestViolationsAreOrderedByLocation(t *testing.T) {
	violations := checkSource(t, nil, `
void late(void) {
    int i = 0;
    while (1) {
        i++;
    }
}

void early(void) {
    continue;
}
`)

	if len(violations) < 2 {
		t.Fatalf("Expected at least 2 violations, got %d", len(violations))
	}
	for i := 1; i < len(violations); i++ {
		if violations[i].Location.StartLine < violations[i-1].Location.StartLine {
			t.Fatal("Violations must be ordered by source line")
		}
	}
}

func TestViolationString(t *testing.T) {
	v := &Violation{
		Kind:     ViolationNoEnclosingLoop,
		Function: "f",
		Message:  "\"break\" statement with no enclosing loop",
		Location: parser.Location{File: "test.c", StartLine: 3, StartCol: 4},
	}

	got := v.String()
	if got == "" || !hasSubstring(got, "no-enclosing-loop") || !hasSubstring(got, "test.c") {
		t.Errorf("Unexpected violation string: %q", got)
	}
}

func hasSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
