package analyzer

import (
	"sort"
	"strings"

	"github.com/cflow-tools/cflow/internal/parser"
)

type SeverityLevel string

const (
	SeverityLevelCritical SeverityLevel = "critical"
	SeverityLevelWarning  SeverityLevel = "warning"
	SeverityLevelInfo     SeverityLevel = "info"
)

type DeadCodeReason string

const (
	ReasonUnreachableAfterReturn   DeadCodeReason = "unreachable_after_return"
	ReasonUnreachableAfterBreak    DeadCodeReason = "unreachable_after_break"
	ReasonUnreachableAfterContinue DeadCodeReason = "unreachable_after_continue"
	ReasonUnreachableBranch        DeadCodeReason = "unreachable_branch"
)

type DeadCodeFinding struct {
	FunctionName string         `json:"function_name"`
	FilePath     string         `json:"file_path"`
	StartLine    int            `json:"start_line"`
	EndLine      int            `json:"end_line"`
	BlockID      string         `json:"block_id"`
	Code         string         `json:"code"`
	Reason       DeadCodeReason `json:"reason"`
	Severity     SeverityLevel  `json:"severity"`
	Description  string         `json:"description"`
}

type DeadCodeResult struct {
	FunctionName   string             `json:"function_name"`
	FilePath       string             `json:"file_path"`
	Findings       []*DeadCodeFinding `json:"findings"`
	TotalBlocks    int                `json:"total_blocks"`
	DeadBlocks     int                `json:"dead_blocks"`
	ReachableRatio float64            `json:"reachable_ratio"`
}

// DeadCodeDetector finds code no execution path can reach: statements after
// an unconditional break/continue/return, and branch joins both arms of
// which terminate. Findings are informational; policy decides whether they
// reject the function.
type DeadCodeDetector struct {
	cfg      *CFG
	filePath string
}

func NewDeadCodeDetector(cfg *CFG) *DeadCodeDetector {
	return &DeadCodeDetector{cfg: cfg}
}

func NewDeadCodeDetectorWithFilePath(cfg *CFG, filePath string) *DeadCodeDetector {
	return &DeadCodeDetector{cfg: cfg, filePath: filePath}
}

func (dcd *DeadCodeDetector) Detect() *DeadCodeResult {
	result := &DeadCodeResult{
		FunctionName: dcd.getFunctionName(),
		FilePath:     dcd.filePath,
		Findings:     make([]*DeadCodeFinding, 0),
	}

	if dcd.cfg == nil || dcd.cfg.Blocks == nil {
		return result
	}

	result.TotalBlocks = len(dcd.cfg.Blocks)

	analyzer := NewReachabilityAnalyzer(dcd.cfg)
	reachResult := analyzer.AnalyzeReachability()

	result.ReachableRatio = reachResult.GetReachabilityRatio()

	unreachableWithStatements := reachResult.GetUnreachableBlocksWithStatements()
	result.DeadBlocks = len(unreachableWithStatements)

	for _, block := range unreachableWithStatements {
		result.Findings = append(result.Findings, dcd.analyzeDeadBlock(block))
	}

	sort.Slice(result.Findings, func(i, j int) bool {
		if result.Findings[i].StartLine != result.Findings[j].StartLine {
			return result.Findings[i].StartLine < result.Findings[j].StartLine
		}
		return result.Findings[i].BlockID < result.Findings[j].BlockID
	})

	return result
}

func (dcd *DeadCodeDetector) analyzeDeadBlock(block *BasicBlock) *DeadCodeFinding {
	reason, severity := dcd.determineDeadCodeReason(block)

	finding := &DeadCodeFinding{
		FunctionName: dcd.getFunctionName(),
		FilePath:     dcd.filePath,
		BlockID:      block.ID,
		Reason:       reason,
		Severity:     severity,
		Description:  dcd.generateDescription(reason),
	}

	if len(block.Statements) > 0 {
		finding.StartLine = block.Statements[0].Location.StartLine
		finding.EndLine = block.Statements[len(block.Statements)-1].Location.EndLine
		finding.Code = dcd.getCodeSnippet(block.Statements)
	}

	return finding
}

// determineDeadCodeReason looks at how the dead block was orphaned. The
// builder parks post-jump statements in a fresh "unreachable" block whose
// only lexical predecessor is the sealed jump block, so the jump kind is
// recovered from the block the statements followed in source order.
func (dcd *DeadCodeDetector) determineDeadCodeReason(block *BasicBlock) (DeadCodeReason, SeverityLevel) {
	if strings.HasPrefix(block.ID, LabelUnreachable) {
		if jump := dcd.precedingJump(block); jump != nil {
			switch jump.Type {
			case parser.NodeReturnStatement:
				return ReasonUnreachableAfterReturn, SeverityLevelCritical
			case parser.NodeBreakStatement:
				return ReasonUnreachableAfterBreak, SeverityLevelCritical
			case parser.NodeContinueStatement:
				return ReasonUnreachableAfterContinue, SeverityLevelCritical
			}
		}
	}

	return ReasonUnreachableBranch, SeverityLevelWarning
}

// precedingJump finds the jump statement that orphaned an unreachable
// block, by locating the sealed block whose last statement immediately
// precedes this block's first statement in the source.
func (dcd *DeadCodeDetector) precedingJump(block *BasicBlock) *parser.Node {
	if len(block.Statements) == 0 {
		return nil
	}
	firstLine := block.Statements[0].Location.StartLine

	var jump *parser.Node
	for _, candidate := range dcd.cfg.Blocks {
		if len(candidate.Statements) == 0 {
			continue
		}
		last := candidate.Statements[len(candidate.Statements)-1]
		if !last.IsJump() || last.Location.StartLine > firstLine {
			continue
		}
		if jump == nil || last.Location.StartLine > jump.Location.StartLine {
			jump = last
		}
	}
	return jump
}

func (dcd *DeadCodeDetector) generateDescription(reason DeadCodeReason) string {
	descriptions := map[DeadCodeReason]string{
		ReasonUnreachableAfterReturn:   "Code after return statement is unreachable",
		ReasonUnreachableAfterBreak:    "Code after break statement is unreachable",
		ReasonUnreachableAfterContinue: "Code after continue statement is unreachable",
		ReasonUnreachableBranch:        "This branch is unreachable",
	}

	if desc, exists := descriptions[reason]; exists {
		return desc
	}
	return "Code is unreachable"
}

func (dcd *DeadCodeDetector) getCodeSnippet(statements []*parser.Node) string {
	var snippets []string
	for _, stmt := range statements {
		snippets = append(snippets, string(stmt.Type))
	}

	snippet := strings.Join(snippets, "; ")
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}

	return snippet
}

func (dcd *DeadCodeDetector) getFunctionName() string {
	if dcd.cfg != nil {
		return dcd.cfg.Name
	}
	return ""
}

// DetectAll runs dead code detection over every function in a file
func DetectAll(cfgs map[string]*CFG, filePath string) map[string]*DeadCodeResult {
	results := make(map[string]*DeadCodeResult)

	for name, cfg := range cfgs {
		detector := NewDeadCodeDetectorWithFilePath(cfg, filePath)
		results[name] = detector.Detect()
	}

	return results
}

func (dcr *DeadCodeResult) HasFindings() bool {
	return len(dcr.Findings) > 0
}

func (dcr *DeadCodeResult) GetCriticalFindings() []*DeadCodeFinding {
	var critical []*DeadCodeFinding
	for _, finding := range dcr.Findings {
		if finding.Severity == SeverityLevelCritical {
			critical = append(critical, finding)
		}
	}
	return critical
}
