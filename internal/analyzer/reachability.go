package analyzer

// ReachabilityResult contains the results of reachability analysis
type ReachabilityResult struct {
	ReachableBlocks   map[string]*BasicBlock
	UnreachableBlocks map[string]*BasicBlock
	TotalBlocks       int
}

// ReachabilityAnalyzer finds the blocks a function can actually execute
type ReachabilityAnalyzer struct {
	cfg *CFG
}

// NewReachabilityAnalyzer creates a new reachability analyzer
func NewReachabilityAnalyzer(cfg *CFG) *ReachabilityAnalyzer {
	return &ReachabilityAnalyzer{cfg: cfg}
}

// AnalyzeReachability walks the graph from the entry block and partitions
// all blocks into reachable and unreachable sets
func (ra *ReachabilityAnalyzer) AnalyzeReachability() *ReachabilityResult {
	result := &ReachabilityResult{
		ReachableBlocks:   make(map[string]*BasicBlock),
		UnreachableBlocks: make(map[string]*BasicBlock),
		TotalBlocks:       len(ra.cfg.Blocks),
	}

	if ra.cfg.Entry == nil {
		for id, block := range ra.cfg.Blocks {
			result.UnreachableBlocks[id] = block
		}
		return result
	}

	visited := make(map[string]bool)
	ra.traverseFrom(ra.cfg.Entry, visited, result.ReachableBlocks)

	for id, block := range ra.cfg.Blocks {
		if !visited[id] {
			result.UnreachableBlocks[id] = block
		}
	}

	return result
}

// traverseFrom performs depth-first traversal along successor edges
func (ra *ReachabilityAnalyzer) traverseFrom(block *BasicBlock, visited map[string]bool, reachable map[string]*BasicBlock) {
	if block == nil || visited[block.ID] {
		return
	}

	visited[block.ID] = true
	reachable[block.ID] = block

	for _, edge := range block.Successors {
		ra.traverseFrom(edge.To, visited, reachable)
	}
}

// GetUnreachableBlocksWithStatements returns unreachable blocks that carry
// actual code, filtering out the empty scaffolding blocks the builder leaves
// behind after break/continue/return
func (result *ReachabilityResult) GetUnreachableBlocksWithStatements() map[string]*BasicBlock {
	withStatements := make(map[string]*BasicBlock)
	for id, block := range result.UnreachableBlocks {
		if len(block.Statements) > 0 {
			withStatements[id] = block
		}
	}
	return withStatements
}

// GetReachabilityRatio returns the fraction of blocks reachable from entry
func (result *ReachabilityResult) GetReachabilityRatio() float64 {
	if result.TotalBlocks == 0 {
		return 0.0
	}
	return float64(len(result.ReachableBlocks)) / float64(result.TotalBlocks)
}

// HasUnreachableCode reports whether any unreachable block carries code
func (result *ReachabilityResult) HasUnreachableCode() bool {
	return len(result.GetUnreachableBlocksWithStatements()) > 0
}
