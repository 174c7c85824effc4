package analyzer

import (
	"fmt"
	"sort"

	"github.com/cflow-tools/cflow/internal/parser"
)

// EdgeType represents the type of edge between basic blocks
type EdgeType int

const (
	EdgeNormal EdgeType = iota
	EdgeCondTrue
	EdgeCondFalse
	EdgeLoop
	EdgeBreak
	EdgeContinue
	EdgeReturn
)

// String returns a string representation of the edge type
func (e EdgeType) String() string {
	switch e {
	case EdgeNormal:
		return "normal"
	case EdgeCondTrue:
		return "true"
	case EdgeCondFalse:
		return "false"
	case EdgeLoop:
		return "loop"
	case EdgeBreak:
		return "break"
	case EdgeContinue:
		return "continue"
	case EdgeReturn:
		return "return"
	default:
		return "unknown"
	}
}

// TerminatorKind classifies the control transfer that ends a basic block
type TerminatorKind int

const (
	TermFallthrough TerminatorKind = iota
	TermBranch
	TermReturn
	TermUnreachable
)

// String returns a string representation of the terminator kind
func (k TerminatorKind) String() string {
	switch k {
	case TermFallthrough:
		return "fallthrough"
	case TermBranch:
		return "branch"
	case TermReturn:
		return "return"
	case TermUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Terminator is the single control transfer ending a sealed basic block.
// Fallthrough uses Target; Branch uses Cond, Then and Else; Return and
// Unreachable carry no targets.
type Terminator struct {
	Kind   TerminatorKind
	Target *BasicBlock
	Cond   *parser.Node
	Then   *BasicBlock
	Else   *BasicBlock
}

// Targets returns the blocks this terminator can transfer control to
func (t *Terminator) Targets() []*BasicBlock {
	switch t.Kind {
	case TermFallthrough:
		if t.Target != nil {
			return []*BasicBlock{t.Target}
		}
	case TermBranch:
		targets := make([]*BasicBlock, 0, 2)
		if t.Then != nil {
			targets = append(targets, t.Then)
		}
		if t.Else != nil {
			targets = append(targets, t.Else)
		}
		return targets
	}
	return nil
}

// Edge represents a directed edge between two basic blocks
type Edge struct {
	From *BasicBlock
	To   *BasicBlock
	Type EdgeType
}

// BasicBlock represents a straight-line statement sequence with a single
// entry and a single terminator. Statements are append-only until the block
// is sealed by setting its terminator; a sealed block never changes again.
type BasicBlock struct {
	ID           string
	Statements   []*parser.Node
	Terminator   *Terminator
	Successors   []*Edge
	Predecessors []*Edge
	IsEntry      bool
	IsExit       bool
}

// NewBasicBlock creates a new basic block with the given ID
func NewBasicBlock(id string) *BasicBlock {
	return &BasicBlock{
		ID:           id,
		Statements:   []*parser.Node{},
		Successors:   []*Edge{},
		Predecessors: []*Edge{},
	}
}

// AddStatement appends a statement to an unsealed block
func (b *BasicBlock) AddStatement(stmt *parser.Node) {
	if stmt == nil || b.Sealed() {
		return
	}
	b.Statements = append(b.Statements, stmt)
}

// Sealed reports whether the block's terminator has been set
func (b *BasicBlock) Sealed() bool {
	return b.Terminator != nil
}

// AddSuccessor creates an edge from this block to the target block
func (b *BasicBlock) AddSuccessor(target *BasicBlock, edgeType EdgeType) *Edge {
	edge := &Edge{From: b, To: target, Type: edgeType}
	b.Successors = append(b.Successors, edge)
	target.Predecessors = append(target.Predecessors, edge)
	return edge
}

// CFG represents the control flow graph of a single function
type CFG struct {
	Name         string
	Entry        *BasicBlock
	Exit         *BasicBlock
	Blocks       map[string]*BasicBlock
	FunctionNode *parser.Node

	// Loops records every loop lowered into this graph, in source order
	Loops []*LoopInfo

	// Violations holds structural problems found while building
	// (break/continue with no enclosing loop). They never block assembly.
	Violations []*Violation
}

// NewCFG creates a new control flow graph with entry and exit blocks
func NewCFG(name string) *CFG {
	entry := NewBasicBlock(LabelEntry)
	entry.IsEntry = true
	exit := NewBasicBlock(LabelExit)
	exit.IsExit = true

	return &CFG{
		Name:  name,
		Entry: entry,
		Exit:  exit,
		Blocks: map[string]*BasicBlock{
			LabelEntry: entry,
			LabelExit:  exit,
		},
	}
}

// ConnectBlocks creates an edge between two blocks in the graph
func (c *CFG) ConnectBlocks(from, to *BasicBlock, edgeType EdgeType) {
	if from == nil || to == nil {
		return
	}
	from.AddSuccessor(to, edgeType)
}

// SealFallthrough seals a block with an unconditional transfer to target
func (c *CFG) SealFallthrough(block, target *BasicBlock, edgeType EdgeType) {
	if block == nil || block.Sealed() || target == nil {
		return
	}
	block.Terminator = &Terminator{Kind: TermFallthrough, Target: target}
	c.ConnectBlocks(block, target, edgeType)
}

// SealBranch seals a block with a two-way conditional transfer
func (c *CFG) SealBranch(block *BasicBlock, cond *parser.Node, thenBlock, elseBlock *BasicBlock) {
	if block == nil || block.Sealed() {
		return
	}
	block.Terminator = &Terminator{Kind: TermBranch, Cond: cond, Then: thenBlock, Else: elseBlock}
	c.ConnectBlocks(block, thenBlock, EdgeCondTrue)
	c.ConnectBlocks(block, elseBlock, EdgeCondFalse)
}

// SealReturn seals a block with a transfer to the function exit
func (c *CFG) SealReturn(block *BasicBlock) {
	if block == nil || block.Sealed() {
		return
	}
	block.Terminator = &Terminator{Kind: TermReturn}
	c.ConnectBlocks(block, c.Exit, EdgeReturn)
}

// SealUnreachable seals a block that control can never leave
func (c *CFG) SealUnreachable(block *BasicBlock) {
	if block == nil || block.Sealed() {
		return
	}
	block.Terminator = &Terminator{Kind: TermUnreachable}
}

// BlockCount returns the number of blocks in the graph
func (c *CFG) BlockCount() int {
	return len(c.Blocks)
}

// EdgeCount returns the number of edges in the graph
func (c *CFG) EdgeCount() int {
	count := 0
	for _, block := range c.Blocks {
		count += len(block.Successors)
	}
	return count
}

// BlockIDs returns the block IDs in sorted order
func (c *CFG) BlockIDs() []string {
	ids := make([]string, 0, len(c.Blocks))
	for id := range c.Blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks structural well-formedness of a completed graph: every
// block carries exactly one terminator (the exit block excepted) and every
// terminator target exists in this graph.
func (c *CFG) Validate() error {
	if c.Entry == nil {
		return fmt.Errorf("cfg %s has no entry block", c.Name)
	}
	if c.Exit == nil {
		return fmt.Errorf("cfg %s has no exit block", c.Name)
	}

	for id, block := range c.Blocks {
		if block.IsExit {
			continue
		}
		if block.Terminator == nil {
			return fmt.Errorf("cfg %s: block %s has no terminator", c.Name, id)
		}
		for _, target := range block.Terminator.Targets() {
			if target == nil {
				return fmt.Errorf("cfg %s: block %s has a nil terminator target", c.Name, id)
			}
			if c.Blocks[target.ID] != target {
				return fmt.Errorf("cfg %s: block %s targets %s which is not in the graph", c.Name, id, target.ID)
			}
		}
		if block.Terminator.Kind == TermBranch {
			if block.Terminator.Then == nil || block.Terminator.Else == nil {
				return fmt.Errorf("cfg %s: branch in block %s is missing a target", c.Name, id)
			}
		}
	}

	for _, block := range c.Blocks {
		for _, edge := range block.Successors {
			if c.Blocks[edge.To.ID] != edge.To {
				return fmt.Errorf("cfg %s: dangling edge from %s to %s", c.Name, block.ID, edge.To.ID)
			}
		}
	}

	return nil
}

// LoopKind identifies the source construct a loop was lowered from
type LoopKind int

const (
	LoopWhile LoopKind = iota
	LoopDoWhile
	LoopFor
)

// String returns a string representation of the loop kind
func (k LoopKind) String() string {
	switch k {
	case LoopWhile:
		return "while"
	case LoopDoWhile:
		return "do-while"
	case LoopFor:
		return "for"
	default:
		return "unknown"
	}
}

// LoopInfo records the anchor blocks of one lowered loop. Step is set only
// for for-loops, where it holds the increment that continue must route
// through.
type LoopInfo struct {
	Kind   LoopKind
	Node   *parser.Node
	Header *BasicBlock
	Body   *BasicBlock
	Step   *BasicBlock
	Exit   *BasicBlock
}

// Cond returns the loop's condition expression, or nil for for(;;)
func (l *LoopInfo) Cond() *parser.Node {
	if l.Node == nil || l.Node.Test == nil {
		return nil
	}
	return l.Node.Test.InnerExpression()
}
