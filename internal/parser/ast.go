package parser

import "fmt"

// NodeType represents the type of AST node
type NodeType string

// C subset AST node types
const (
	// Program and structure
	NodeTranslationUnit NodeType = "TranslationUnit"

	// Functions
	NodeFunctionDefinition NodeType = "FunctionDefinition"
	NodeParameter          NodeType = "ParameterDeclaration"

	// Declarations
	NodeDeclaration NodeType = "Declaration"
	NodeIdentifier  NodeType = "Identifier"

	// Control flow statements
	NodeIfStatement       NodeType = "IfStatement"
	NodeWhileStatement    NodeType = "WhileStatement"
	NodeDoWhileStatement  NodeType = "DoWhileStatement"
	NodeForStatement      NodeType = "ForStatement"
	NodeBreakStatement    NodeType = "BreakStatement"
	NodeContinueStatement NodeType = "ContinueStatement"
	NodeReturnStatement   NodeType = "ReturnStatement"

	// Constructs the dialect recognizes only to reject
	NodeSwitchStatement  NodeType = "SwitchStatement"
	NodeGotoStatement    NodeType = "GotoStatement"
	NodeLabeledStatement NodeType = "LabeledStatement"

	// Expressions
	NodeBinaryExpression     NodeType = "BinaryExpression"
	NodeUnaryExpression      NodeType = "UnaryExpression"
	NodeUpdateExpression     NodeType = "UpdateExpression"
	NodeAssignmentExpression NodeType = "AssignmentExpression"
	NodeSubscriptExpression  NodeType = "SubscriptExpression"
	NodeCallExpression       NodeType = "CallExpression"
	NodeParenExpression      NodeType = "ParenthesizedExpression"
	NodeCommaExpression      NodeType = "CommaExpression"

	// Literals
	NodeNumberLiteral NodeType = "NumberLiteral"
	NodeCharLiteral   NodeType = "CharLiteral"
	NodeStringLiteral NodeType = "StringLiteral"

	// Other statements
	NodeExpressionStatement NodeType = "ExpressionStatement"
	NodeCompoundStatement   NodeType = "CompoundStatement"
	NodeEmptyStatement      NodeType = "EmptyStatement"
)

// Location represents the position of a node in the source code
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// String returns a string representation of the location
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartCol)
}

// Node represents an AST node
type Node struct {
	Type     NodeType
	Children []*Node
	Location Location
	Parent   *Node

	// Name holds function, parameter, and identifier names
	Name string

	// Function fields
	Params []*Node // Function parameters
	Body   []*Node // Function/compound body

	// Control flow fields
	Test       *Node // Condition for if/while/do-while/for
	Consequent *Node // Then branch for if
	Alternate  *Node // Else branch for if
	Init       *Node // For loop initializer
	Update     *Node // For loop step expression

	// Expression fields
	Left      *Node   // Left operand
	Right     *Node   // Right operand
	Operator  string  // Operator (+, <, ++, =, etc.)
	Argument  *Node   // Unary/update expression operand
	Index     *Node   // Subscript index expression
	Callee    *Node   // Function being called
	Arguments []*Node // Call arguments

	// Declaration fields
	DeclType string // Declared C type as written (int, unsigned, ...)
	Value    *Node  // Declarator initializer / return value

	// Raw is the literal source text for literals
	Raw string
}

// NewNode creates a new AST node
func NewNode(nodeType NodeType) *Node {
	return &Node{
		Type:      nodeType,
		Children:  []*Node{},
		Params:    []*Node{},
		Body:      []*Node{},
		Arguments: []*Node{},
	}
}

// AddChild adds a child node
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Walk traverses the AST depth-first and calls the visitor function for each node.
// If the visitor returns false, traversal of that branch is stopped.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}

	if !visitor(n) {
		return
	}

	for _, child := range n.Children {
		child.Walk(visitor)
	}
	for _, param := range n.Params {
		param.Walk(visitor)
	}
	for _, stmt := range n.Body {
		stmt.Walk(visitor)
	}
	for _, arg := range n.Arguments {
		arg.Walk(visitor)
	}

	if n.Test != nil {
		n.Test.Walk(visitor)
	}
	if n.Consequent != nil {
		n.Consequent.Walk(visitor)
	}
	if n.Alternate != nil {
		n.Alternate.Walk(visitor)
	}
	if n.Init != nil {
		n.Init.Walk(visitor)
	}
	if n.Update != nil {
		n.Update.Walk(visitor)
	}
	if n.Left != nil {
		n.Left.Walk(visitor)
	}
	if n.Right != nil {
		n.Right.Walk(visitor)
	}
	if n.Argument != nil {
		n.Argument.Walk(visitor)
	}
	if n.Index != nil {
		n.Index.Walk(visitor)
	}
	if n.Callee != nil {
		n.Callee.Walk(visitor)
	}
	if n.Value != nil {
		n.Value.Walk(visitor)
	}
}

// String returns a string representation of the node
func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s) at %s", n.Type, n.Name, n.Location)
	}
	return fmt.Sprintf("%s at %s", n.Type, n.Location)
}

// IsStatement returns true if the node is a statement
func (n *Node) IsStatement() bool {
	switch n.Type {
	case NodeIfStatement, NodeWhileStatement, NodeDoWhileStatement,
		NodeForStatement, NodeBreakStatement, NodeContinueStatement,
		NodeReturnStatement, NodeSwitchStatement, NodeGotoStatement,
		NodeLabeledStatement, NodeDeclaration,
		NodeExpressionStatement, NodeCompoundStatement, NodeEmptyStatement:
		return true
	}
	return false
}

// IsLoop returns true if the node is a loop statement
func (n *Node) IsLoop() bool {
	switch n.Type {
	case NodeWhileStatement, NodeDoWhileStatement, NodeForStatement:
		return true
	}
	return false
}

// IsFunction returns true if the node is a function definition
func (n *Node) IsFunction() bool {
	return n.Type == NodeFunctionDefinition
}

// IsJump returns true if the node unconditionally transfers control
func (n *Node) IsJump() bool {
	switch n.Type {
	case NodeBreakStatement, NodeContinueStatement, NodeReturnStatement, NodeGotoStatement:
		return true
	}
	return false
}

// InnerExpression strips parenthesized wrappers, which tree-sitter keeps as
// explicit nodes around every C condition.
func (n *Node) InnerExpression() *Node {
	inner := n
	for inner != nil && inner.Type == NodeParenExpression && inner.Argument != nil {
		inner = inner.Argument
	}
	return inner
}

// IsIntLiteral reports whether the node is a number literal with the given value.
func (n *Node) IsIntLiteral(value string) bool {
	if n == nil {
		return false
	}
	inner := n.InnerExpression()
	return inner != nil && inner.Type == NodeNumberLiteral && inner.Raw == value
}
