package analyzer

import (
	"fmt"
	"log"
	"strconv"

	"github.com/cflow-tools/cflow/internal/parser"
)

// Block label constants
const (
	LabelEntry       = "ENTRY"
	LabelExit        = "EXIT"
	LabelUnreachable = "unreachable"

	// Branch-related labels
	LabelIfThen  = "if_then"
	LabelIfElse  = "if_else"
	LabelIfMerge = "if_merge"

	// Loop-related labels
	LabelLoopHeader = "loop_header"
	LabelLoopBody   = "loop_body"
	LabelLoopStep   = "loop_step"
	LabelLoopCond   = "loop_cond"
	LabelLoopExit   = "loop_exit"
)

// loopContext tracks the jump targets of the innermost active loop.
// continueTarget is the block a continue re-enters: the header for while,
// the condition test for do-while, and the step block for for-loops.
type loopContext struct {
	continueTarget *BasicBlock
	breakTarget    *BasicBlock
	kind           LoopKind
}

// CFGBuilder lowers a function body into a control flow graph. One builder
// instance owns one in-progress graph; builders are not shared.
type CFGBuilder struct {
	cfg          *CFG
	currentBlock *BasicBlock
	blockCounter uint
	loopStack    []*loopContext
	logger       *log.Logger
}

// NewCFGBuilder creates a new CFG builder
func NewCFGBuilder() *CFGBuilder {
	return &CFGBuilder{
		loopStack: []*loopContext{},
	}
}

// SetLogger sets an optional logger for diagnostics during lowering
func (b *CFGBuilder) SetLogger(logger *log.Logger) {
	b.logger = logger
}

// Build lowers one function definition into a CFG
func (b *CFGBuilder) Build(node *parser.Node) (*CFG, error) {
	if node == nil {
		return nil, fmt.Errorf("cannot build CFG from nil node")
	}
	if node.Type != parser.NodeFunctionDefinition {
		return nil, fmt.Errorf("cannot build CFG from %s node", node.Type)
	}

	name := node.Name
	if name == "" {
		name = fmt.Sprintf("anonymous_%d", node.Location.StartLine)
	}

	b.cfg = NewCFG(name)
	b.cfg.FunctionNode = node
	b.blockCounter = 0
	b.loopStack = b.loopStack[:0]
	b.currentBlock = b.cfg.Entry

	for _, stmt := range node.Body {
		b.processStatement(stmt)
	}

	// Falling off the end of the function returns
	if b.currentBlock != nil && !b.currentBlock.Sealed() {
		if b.isDanglingCursor(b.currentBlock) {
			b.cfg.SealUnreachable(b.currentBlock)
		} else {
			b.cfg.SealReturn(b.currentBlock)
		}
	}

	// Every block carries exactly one terminator once the build completes
	for _, block := range b.cfg.Blocks {
		if !block.IsExit && !block.Sealed() {
			b.cfg.SealUnreachable(block)
		}
	}

	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	return b.cfg, nil
}

// BuildAll lowers every function in a translation unit. Functions are
// independent: a structural violation in one never stops the others.
func (b *CFGBuilder) BuildAll(root *parser.Node) (map[string]*CFG, error) {
	if root == nil {
		return nil, fmt.Errorf("cannot build CFGs from nil node")
	}

	cfgs := make(map[string]*CFG)
	for _, child := range root.Body {
		if child.Type != parser.NodeFunctionDefinition {
			continue
		}

		funcBuilder := NewCFGBuilder()
		funcBuilder.SetLogger(b.logger)
		cfg, err := funcBuilder.Build(child)
		if err != nil {
			return nil, fmt.Errorf("lowering %s: %w", child.Name, err)
		}

		name := cfg.Name
		if _, exists := cfgs[name]; exists {
			name = fmt.Sprintf("%s_%d", name, child.Location.StartLine)
		}
		cfgs[name] = cfg
	}

	return cfgs, nil
}

// processStatement lowers a single statement, threading the current block
// cursor
func (b *CFGBuilder) processStatement(node *parser.Node) {
	if node == nil || b.currentBlock == nil {
		return
	}

	switch node.Type {
	case parser.NodeCompoundStatement:
		for _, stmt := range node.Body {
			b.processStatement(stmt)
		}
	case parser.NodeIfStatement:
		b.buildIfStatement(node)
	case parser.NodeWhileStatement:
		b.buildWhileStatement(node)
	case parser.NodeDoWhileStatement:
		b.buildDoWhileStatement(node)
	case parser.NodeForStatement:
		b.buildForStatement(node)
	case parser.NodeBreakStatement:
		b.buildBreakStatement(node)
	case parser.NodeContinueStatement:
		b.buildContinueStatement(node)
	case parser.NodeReturnStatement:
		b.buildReturnStatement(node)
	case parser.NodeLabeledStatement:
		// The label itself is payload; its statement still lowers
		b.currentBlock.AddStatement(node)
		for _, stmt := range node.Body {
			b.processStatement(stmt)
		}
	case parser.NodeEmptyStatement:
		// Nothing to lower
	default:
		// Non-branching statement - payload of the current block
		b.currentBlock.AddStatement(node)
	}
}

// buildIfStatement lowers an if statement. The current block is sealed with
// a branch; when there is no else, the false edge goes straight to the merge
// block.
func (b *CFGBuilder) buildIfStatement(node *parser.Node) {
	condBlock := b.currentBlock
	thenBlock := b.newBlock(LabelIfThen)
	mergeBlock := b.newBlock(LabelIfMerge)

	b.currentBlock = thenBlock
	b.processStatement(node.Consequent)
	if b.currentBlock != nil && !b.currentBlock.Sealed() {
		b.cfg.SealFallthrough(b.currentBlock, mergeBlock, EdgeNormal)
	}

	if node.Alternate != nil {
		elseBlock := b.newBlock(LabelIfElse)
		b.currentBlock = elseBlock
		b.processStatement(node.Alternate)
		if b.currentBlock != nil && !b.currentBlock.Sealed() {
			b.cfg.SealFallthrough(b.currentBlock, mergeBlock, EdgeNormal)
		}
		b.cfg.SealBranch(condBlock, b.condExpr(node.Test), thenBlock, elseBlock)
	} else {
		b.cfg.SealBranch(condBlock, b.condExpr(node.Test), thenBlock, mergeBlock)
	}

	// If both branches terminated, the merge block has no predecessors and
	// reachability analysis flags it
	b.currentBlock = mergeBlock
}

// buildWhileStatement lowers a while loop: header tests the condition,
// continue re-enters the header, break leaves to the exit block.
func (b *CFGBuilder) buildWhileStatement(node *parser.Node) {
	headerBlock := b.newBlock(LabelLoopHeader)
	bodyBlock := b.newBlock(LabelLoopBody)
	exitBlock := b.newBlock(LabelLoopExit)

	b.cfg.SealFallthrough(b.currentBlock, headerBlock, EdgeNormal)
	b.cfg.SealBranch(headerBlock, b.condExpr(node.Test), bodyBlock, exitBlock)

	b.pushLoop(&loopContext{
		continueTarget: headerBlock,
		breakTarget:    exitBlock,
		kind:           LoopWhile,
	})

	b.currentBlock = bodyBlock
	for _, stmt := range node.Body {
		b.processStatement(stmt)
	}

	// Body exit falls through to the header for the re-test
	if b.currentBlock != nil && !b.currentBlock.Sealed() {
		b.cfg.SealFallthrough(b.currentBlock, headerBlock, EdgeLoop)
	}

	b.popLoop()

	b.cfg.Loops = append(b.cfg.Loops, &LoopInfo{
		Kind:   LoopWhile,
		Node:   node,
		Header: headerBlock,
		Body:   bodyBlock,
		Exit:   exitBlock,
	})

	b.currentBlock = exitBlock
}

// buildDoWhileStatement lowers a do-while loop. continue targets the
// condition test, never the body start: the condition must still be
// re-evaluated, so continue inside do{...}while(0) terminates the loop.
func (b *CFGBuilder) buildDoWhileStatement(node *parser.Node) {
	bodyBlock := b.newBlock(LabelLoopBody)
	condBlock := b.newBlock(LabelLoopCond)
	exitBlock := b.newBlock(LabelLoopExit)

	// do-while enters the body unconditionally
	b.cfg.SealFallthrough(b.currentBlock, bodyBlock, EdgeNormal)

	b.pushLoop(&loopContext{
		continueTarget: condBlock,
		breakTarget:    exitBlock,
		kind:           LoopDoWhile,
	})

	b.currentBlock = bodyBlock
	for _, stmt := range node.Body {
		b.processStatement(stmt)
	}

	if b.currentBlock != nil && !b.currentBlock.Sealed() {
		b.cfg.SealFallthrough(b.currentBlock, condBlock, EdgeNormal)
	}

	b.cfg.SealBranch(condBlock, b.condExpr(node.Test), bodyBlock, exitBlock)

	b.popLoop()

	b.cfg.Loops = append(b.cfg.Loops, &LoopInfo{
		Kind:   LoopDoWhile,
		Node:   node,
		Header: condBlock,
		Body:   bodyBlock,
		Exit:   exitBlock,
	})

	b.currentBlock = exitBlock
}

// buildForStatement lowers a for loop with a dedicated step block. continue
// targets the step block, never the header, so the increment always runs
// before the condition is re-tested.
func (b *CFGBuilder) buildForStatement(node *parser.Node) {
	// The initializer runs once, outside the loop
	if node.Init != nil {
		b.currentBlock.AddStatement(node.Init)
	}

	headerBlock := b.newBlock(LabelLoopHeader)
	bodyBlock := b.newBlock(LabelLoopBody)
	stepBlock := b.newBlock(LabelLoopStep)
	exitBlock := b.newBlock(LabelLoopExit)

	b.cfg.SealFallthrough(b.currentBlock, headerBlock, EdgeNormal)

	// for(;;) has no condition: the header falls straight into the body
	if cond := b.condExpr(node.Test); cond != nil {
		b.cfg.SealBranch(headerBlock, cond, bodyBlock, exitBlock)
	} else {
		b.cfg.SealFallthrough(headerBlock, bodyBlock, EdgeNormal)
	}

	b.pushLoop(&loopContext{
		continueTarget: stepBlock,
		breakTarget:    exitBlock,
		kind:           LoopFor,
	})

	b.currentBlock = bodyBlock
	for _, stmt := range node.Body {
		b.processStatement(stmt)
	}

	if b.currentBlock != nil && !b.currentBlock.Sealed() {
		b.cfg.SealFallthrough(b.currentBlock, stepBlock, EdgeNormal)
	}

	if node.Update != nil {
		stepBlock.AddStatement(node.Update)
	}
	b.cfg.SealFallthrough(stepBlock, headerBlock, EdgeLoop)

	b.popLoop()

	b.cfg.Loops = append(b.cfg.Loops, &LoopInfo{
		Kind:   LoopFor,
		Node:   node,
		Header: headerBlock,
		Body:   bodyBlock,
		Step:   stepBlock,
		Exit:   exitBlock,
	})

	b.currentBlock = exitBlock
}

// buildBreakStatement lowers a break: seal the current block toward the
// innermost break target. Outside any loop this is a violation, recorded on
// the graph, never a panic.
func (b *CFGBuilder) buildBreakStatement(node *parser.Node) {
	b.currentBlock.AddStatement(node)

	ctx := b.currentLoop()
	if ctx == nil {
		b.reportNoEnclosingLoop("break", node)
		b.cfg.SealUnreachable(b.currentBlock)
	} else {
		b.cfg.SealFallthrough(b.currentBlock, ctx.breakTarget, EdgeBreak)
	}

	// Statements after the break lower into an unreachable block
	b.currentBlock = b.newBlock(LabelUnreachable)
}

// buildContinueStatement lowers a continue toward the innermost continue
// target: the header for while, the condition test for do-while, the step
// block for for-loops.
func (b *CFGBuilder) buildContinueStatement(node *parser.Node) {
	b.currentBlock.AddStatement(node)

	ctx := b.currentLoop()
	if ctx == nil {
		b.reportNoEnclosingLoop("continue", node)
		b.cfg.SealUnreachable(b.currentBlock)
	} else {
		b.cfg.SealFallthrough(b.currentBlock, ctx.continueTarget, EdgeContinue)
	}

	b.currentBlock = b.newBlock(LabelUnreachable)
}

// buildReturnStatement lowers a return statement
func (b *CFGBuilder) buildReturnStatement(node *parser.Node) {
	b.currentBlock.AddStatement(node)
	b.cfg.SealReturn(b.currentBlock)

	b.currentBlock = b.newBlock(LabelUnreachable)
}

// Helper methods

// newBlock creates a new basic block with a unique ID and registers it
func (b *CFGBuilder) newBlock(label string) *BasicBlock {
	b.blockCounter++
	blockID := label + "_" + strconv.Itoa(int(b.blockCounter))
	block := NewBasicBlock(blockID)
	b.cfg.Blocks[blockID] = block
	return block
}

// pushLoop enters a loop context before its body is lowered
func (b *CFGBuilder) pushLoop(ctx *loopContext) {
	b.loopStack = append(b.loopStack, ctx)
}

// popLoop leaves a loop context; called exactly once per loop, after the
// whole body has been lowered, however many breaks referenced it
func (b *CFGBuilder) popLoop() {
	b.loopStack = b.loopStack[:len(b.loopStack)-1]
}

// currentLoop returns the innermost active loop context, or nil
func (b *CFGBuilder) currentLoop() *loopContext {
	if len(b.loopStack) == 0 {
		return nil
	}
	return b.loopStack[len(b.loopStack)-1]
}

// reportNoEnclosingLoop records a break/continue-outside-loop violation
func (b *CFGBuilder) reportNoEnclosingLoop(keyword string, node *parser.Node) {
	v := &Violation{
		Kind:     ViolationNoEnclosingLoop,
		Function: b.cfg.Name,
		Message:  fmt.Sprintf("%q statement with no enclosing loop", keyword),
		Location: node.Location,
	}
	b.cfg.Violations = append(b.cfg.Violations, v)
	if b.logger != nil {
		b.logger.Printf("cfg %s: %s", b.cfg.Name, v)
	}
}

// condExpr strips parentheses from a condition expression
func (b *CFGBuilder) condExpr(test *parser.Node) *parser.Node {
	if test == nil {
		return nil
	}
	return test.InnerExpression()
}

// isDanglingCursor reports whether the cursor block is a leftover
// unreachable block that collected nothing
func (b *CFGBuilder) isDanglingCursor(block *BasicBlock) bool {
	return len(block.Statements) == 0 && len(block.Predecessors) == 0 && !block.IsEntry
}
