package analyzer

import (
	"strings"
	"testing"

	"github.com/cflow-tools/cflow/internal/parser"
)

// blockEndingWith finds the block whose last statement has the given type
func blockEndingWith(t *testing.T, cfg *CFG, nodeType parser.NodeType) *BasicBlock {
	t.Helper()

	for _, id := range cfg.BlockIDs() {
		block := cfg.Blocks[id]
		if len(block.Statements) == 0 {
			continue
		}
		if block.Statements[len(block.Statements)-1].Type == nodeType {
			return block
		}
	}
	t.Fatalf("No block ends with %s", nodeType)
	return nil
}

func singleLoop(t *testing.T, cfg *CFG, kind LoopKind) *LoopInfo {
	t.Helper()

	if len(cfg.Loops) != 1 {
		t.Fatalf("Expected 1 loop, got %d", len(cfg.Loops))
	}
	loop := cfg.Loops[0]
	if loop.Kind != kind {
		t.Fatalf("Expected %s loop, got %s", kind, loop.Kind)
	}
	return loop
}

func TestBuildSimpleFunction(t *testing.T) {
	cfg := buildCFG(t, `
int answer(void) {
    return 42;
}
`)

	if cfg.Name != "answer" {
		t.Errorf("Expected CFG name 'answer', got %q", cfg.Name)
	}
	if cfg.Entry == nil || cfg.Exit == nil {
		t.Fatal("CFG must have entry and exit blocks")
	}
	if cfg.Entry.Terminator == nil || cfg.Entry.Terminator.Kind != TermReturn {
		t.Error("Entry block should end with a return terminator")
	}
}

func TestBuildRejectsNonFunction(t *testing.T) {
	node := parser.NewNode(parser.NodeWhileStatement)
	if _, err := NewCFGBuilder().Build(node); err == nil {
		t.Error("Expected error building CFG from a non-function node")
	}

	if _, err := NewCFGBuilder().Build(nil); err == nil {
		t.Error("Expected error building CFG from nil")
	}
}

func TestForContinueRunsStep(t *testing.T) {
	// continue must execute the step before re-testing the condition.
	// Trace: i=20->21(skip,step to 22)->22->23(skip,step 24)->24->25(write,
	// step 26)->26->27(write,step 28)->28->29(write,step 30)->exit.
	interp := runCFG(t, `
void f(int buffer[]) {
    int i;
    for (i = 20; i < 30; i++) {
        i++;
        if (i < 25) {
            continue;
        }
        buffer[i] = 3;
    }
}
`)

	written := interp.writtenIndices("buffer")
	expected := []int64{25, 27, 29}
	if len(written) != len(expected) {
		t.Fatalf("Expected writes at exactly %v, got %v", expected, written)
	}
	for _, index := range expected {
		if written[index] != 3 {
			t.Errorf("Expected buffer[%d] = 3, got %d", index, written[index])
		}
	}
}

func TestWhileTrueBreak(t *testing.T) {
	// The only exit from while(1) is the break: buffer[0..7] get written,
	// buffer[8] never does.
	interp := runCFG(t, `
void f(int buffer[]) {
    int i = 0;
    while (1) {
        if (i > 7) {
            break;
        }
        buffer[i] = 1;
        i++;
    }
}
`)

	written := interp.writtenIndices("buffer")
	for i := int64(0); i <= 7; i++ {
		if written[i] != 1 {
			t.Errorf("Expected buffer[%d] = 1, got %d", i, written[i])
		}
	}
	if _, ok := written[8]; ok {
		t.Error("buffer[8] must never be written")
	}
	if interp.vars["i"] != 8 {
		t.Errorf("Expected loop to stop at i = 8, got %d", interp.vars["i"])
	}
}

func TestDoWhileContinueTerminates(t *testing.T) {
	// continue inside do{...}while(0) must re-evaluate the constant-false
	// condition and exit, not restart the body.
	interp := runCFG(t, `
void f(int buffer[]) {
    int i = 0;
    do {
        buffer[i] = 2;
        i++;
        if (i < 4) {
            continue;
        }
        buffer[0] = 9;
    } while (0);
}
`)

	written := interp.writtenIndices("buffer")
	if written[0] != 2 {
		t.Errorf("Expected buffer[0] = 2, got %d", written[0])
	}
	if len(written) != 1 {
		t.Errorf("Expected exactly one write, got %v", written)
	}
	if interp.vars["i"] != 1 {
		t.Errorf("Expected exactly one body iteration, i = %d", interp.vars["i"])
	}
}

func TestForContinueTargetsStepBlock(t *testing.T) {
	cfg := buildCFG(t, `
void f(void) {
    int i;
    for (i = 0; i < 10; i++) {
        if (i == 3) {
            continue;
        }
        i = i + 0;
    }
}
`)

	loop := singleLoop(t, cfg, LoopFor)
	if loop.Step == nil {
		t.Fatal("for-loop must have a step block")
	}

	contBlock := blockEndingWith(t, cfg, parser.NodeContinueStatement)
	term := contBlock.Terminator
	if term == nil || term.Kind != TermFallthrough {
		t.Fatal("continue block must end with a fallthrough terminator")
	}
	if term.Target != loop.Step {
		t.Errorf("continue must target the step block %s, got %s", loop.Step.ID, term.Target.ID)
	}
	if term.Target == loop.Header {
		t.Error("continue must never jump straight to the for-loop header")
	}

	// The step block itself loops back to the header
	if loop.Step.Terminator == nil || loop.Step.Terminator.Target != loop.Header {
		t.Error("step block must fall through to the header")
	}
}

func TestWhileContinueTargetsHeader(t *testing.T) {
	cfg := buildCFG(t, `
void f(void) {
    int i = 0;
    while (i < 5) {
        i++;
        if (i == 2) {
            continue;
        }
    }
}
`)

	loop := singleLoop(t, cfg, LoopWhile)
	contBlock := blockEndingWith(t, cfg, parser.NodeContinueStatement)
	if contBlock.Terminator.Target != loop.Header {
		t.Errorf("while continue must target the header, got %s", contBlock.Terminator.Target.ID)
	}
}

func TestDoWhileContinueTargetsCondTest(t *testing.T) {
	cfg := buildCFG(t, `
void f(void) {
    int i = 0;
    do {
        i++;
        if (i == 1) {
            continue;
        }
    } while (i < 3);
}
`)

	loop := singleLoop(t, cfg, LoopDoWhile)
	contBlock := blockEndingWith(t, cfg, parser.NodeContinueStatement)
	target := contBlock.Terminator.Target
	if target != loop.Header {
		t.Errorf("do-while continue must target the condition test, got %s", target.ID)
	}
	if target == loop.Body {
		t.Error("do-while continue must never restart the body directly")
	}
}

func TestBreakOutsideLoopIsViolation(t *testing.T) {
	cfg := buildCFG(t, `
void f(void) {
    break;
}
`)

	if len(cfg.Violations) != 1 {
		t.Fatalf("Expected 1 violation, got %d", len(cfg.Violations))
	}
	v := cfg.Violations[0]
	if v.Kind != ViolationNoEnclosingLoop {
		t.Errorf("Expected no-enclosing-loop violation, got %s", v.Kind)
	}
	if v.Function != "f" {
		t.Errorf("Expected violation in function f, got %q", v.Function)
	}
	if v.Location.StartLine != 3 {
		t.Errorf("Expected violation at line 3, got %d", v.Location.StartLine)
	}
}

func TestContinueOutsideLoopIsViolation(t *testing.T) {
	cfg := buildCFG(t, `
void f(int x) {
    if (x > 0) {
        continue;
    }
}
`)

	if len(cfg.Violations) != 1 {
		t.Fatalf("Expected 1 violation, got %d", len(cfg.Violations))
	}
	if cfg.Violations[0].Kind != ViolationNoEnclosingLoop {
		t.Errorf("Expected no-enclosing-loop violation, got %s", cfg.Violations[0].Kind)
	}
}

func TestBreakBindsToInnermostLoop(t *testing.T) {
	// The inner break must leave only the inner loop: the outer loop keeps
	// running, so every row of the grid gets its first column written.
	interp := runCFG(t, `
void f(int grid[]) {
    int i;
    int j;
    for (i = 0; i < 3; i++) {
        for (j = 0; j < 3; j++) {
            grid[i * 3 + j] = 1;
            break;
        }
    }
}
`)

	written := interp.writtenIndices("grid")
	for _, index := range []int64{0, 3, 6} {
		if written[index] != 1 {
			t.Errorf("Expected grid[%d] = 1, got %d", index, written[index])
		}
	}
	if len(written) != 3 {
		t.Errorf("Expected exactly 3 writes, got %v", written)
	}
}

func TestNestedLoopContexts(t *testing.T) {
	cfg := buildCFG(t, `
void f(void) {
    int i;
    int j;
    for (i = 0; i < 3; i++) {
        while (j < 3) {
            j++;
            break;
        }
        continue;
    }
}
`)

	if len(cfg.Loops) != 2 {
		t.Fatalf("Expected 2 loops, got %d", len(cfg.Loops))
	}

	var forLoop, whileLoop *LoopInfo
	for _, loop := range cfg.Loops {
		switch loop.Kind {
		case LoopFor:
			forLoop = loop
		case LoopWhile:
			whileLoop = loop
		}
	}
	if forLoop == nil || whileLoop == nil {
		t.Fatal("Expected one for loop and one while loop")
	}

	breakBlock := blockEndingWith(t, cfg, parser.NodeBreakStatement)
	if breakBlock.Terminator.Target != whileLoop.Exit {
		t.Error("break must bind to the innermost (while) loop exit")
	}

	contBlock := blockEndingWith(t, cfg, parser.NodeContinueStatement)
	if contBlock.Terminator.Target != forLoop.Step {
		t.Error("continue after the inner loop must bind to the for-loop step block")
	}
}

func TestStatementsAfterBreakAreUnreachable(t *testing.T) {
	cfg := buildCFG(t, `
void f(void) {
    int i = 0;
    while (i < 3) {
        break;
        i = 99;
    }
}
`)

	result := NewReachabilityAnalyzer(cfg).AnalyzeReachability()
	dead := result.GetUnreachableBlocksWithStatements()
	if len(dead) != 1 {
		t.Fatalf("Expected 1 unreachable block with statements, got %d", len(dead))
	}
	for id, block := range dead {
		if !strings.HasPrefix(id, LabelUnreachable) {
			t.Errorf("Expected an unreachable-labeled block, got %s", id)
		}
		if len(block.Statements) != 1 {
			t.Errorf("Expected 1 dead statement, got %d", len(block.Statements))
		}
	}

	// The dead statement was still lowered and the graph is well formed
	if err := cfg.Validate(); err != nil {
		t.Errorf("CFG with dead code must still validate: %v", err)
	}
}

func TestBothBranchesReturnMakesJoinUnreachable(t *testing.T) {
	cfg := buildCFG(t, `
int sign(int x) {
    if (x >= 0) {
        return 1;
    } else {
        return -1;
    }
}
`)

	result := NewReachabilityAnalyzer(cfg).AnalyzeReachability()
	foundDeadMerge := false
	for id := range result.UnreachableBlocks {
		if strings.HasPrefix(id, LabelIfMerge) {
			foundDeadMerge = true
		}
	}
	if !foundDeadMerge {
		t.Error("Join block after two returning branches must be unreachable")
	}
}

func TestForWithoutConditionFallsIntoBody(t *testing.T) {
	cfg := buildCFG(t, `
void f(void) {
    for (;;) {
        break;
    }
}
`)

	loop := singleLoop(t, cfg, LoopFor)
	term := loop.Header.Terminator
	if term == nil || term.Kind != TermFallthrough || term.Target != loop.Body {
		t.Error("for(;;) header must fall through into the body")
	}
}

func TestImplicitReturnAtFunctionEnd(t *testing.T) {
	cfg := buildCFG(t, `
void f(void) {
    int i = 0;
}
`)

	if cfg.Entry.Terminator == nil || cfg.Entry.Terminator.Kind != TermReturn {
		t.Error("Falling off the end of a function must lower to a return")
	}
	if len(cfg.Exit.Predecessors) == 0 {
		t.Error("Exit block must have the returning block as a predecessor")
	}
}

func TestBuildAllLowersEveryFunction(t *testing.T) {
	ast, err := parser.ParseSource("test.c", []byte(`
int one(void) { return 1; }
int two(void) { return 2; }
void three(void) { break; }
`))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	cfgs, err := NewCFGBuilder().BuildAll(ast)
	if err != nil {
		t.Fatalf("BuildAll failed: %v", err)
	}

	if len(cfgs) != 3 {
		t.Fatalf("Expected 3 CFGs, got %d", len(cfgs))
	}
	for _, name := range []string{"one", "two", "three"} {
		if cfgs[name] == nil {
			t.Errorf("Missing CFG for %s", name)
		}
	}

	// A violation in one function does not stop its siblings
	if len(cfgs["three"].Violations) != 1 {
		t.Errorf("Expected the bad function to carry its violation, got %d", len(cfgs["three"].Violations))
	}
	if len(cfgs["one"].Violations) != 0 {
		t.Errorf("Healthy sibling must have no violations")
	}
}

func TestLoweringIsDeterministic(t *testing.T) {
	source := `
void f(int buffer[]) {
    int i;
    for (i = 0; i < 8; i++) {
        if (i == 4) {
            continue;
        }
        buffer[i] = i;
    }
    while (i > 0) {
        i--;
    }
}
`
	first := buildCFG(t, source)
	second := buildCFG(t, source)

	if first.BlockCount() != second.BlockCount() {
		t.Fatalf("Block counts differ: %d vs %d", first.BlockCount(), second.BlockCount())
	}
	if first.EdgeCount() != second.EdgeCount() {
		t.Fatalf("Edge counts differ: %d vs %d", first.EdgeCount(), second.EdgeCount())
	}

	firstIDs := first.BlockIDs()
	secondIDs := second.BlockIDs()
	for i, id := range firstIDs {
		if secondIDs[i] != id {
			t.Fatalf("Block IDs diverge at %d: %s vs %s", i, id, secondIDs[i])
		}
		a := first.Blocks[id].Terminator
		b := second.Blocks[id].Terminator
		if (a == nil) != (b == nil) {
			t.Fatalf("Terminator presence differs for %s", id)
		}
		if a != nil && a.Kind != b.Kind {
			t.Fatalf("Terminator kinds differ for %s: %s vs %s", id, a.Kind, b.Kind)
		}
	}
}

func TestBuiltGraphsValidate(t *testing.T) {
	sources := []string{
		`void a(void) { int i = 0; while (i < 3) { i++; } }`,
		`void b(void) { int i; for (i = 0; i < 3; i++) { if (i == 1) { continue; } } }`,
		`void c(void) { int i = 0; do { i++; } while (i < 2); }`,
		`int d(int x) { if (x) { return 1; } return 0; }`,
		`void e(void) { break; }`,
	}

	for _, source := range sources {
		cfg := buildCFG(t, source)
		if err := cfg.Validate(); err != nil {
			t.Errorf("CFG %s failed validation: %v", cfg.Name, err)
		}
	}
}
