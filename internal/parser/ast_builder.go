package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ASTBuilder builds our internal AST from the tree-sitter CST
type ASTBuilder struct {
	filename string
	source   []byte
}

// NewASTBuilder creates a new AST builder
func NewASTBuilder(filename string, source []byte) *ASTBuilder {
	return &ASTBuilder{
		filename: filename,
		source:   source,
	}
}

// Build builds the AST from a tree-sitter node
func (b *ASTBuilder) Build(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	return b.buildNode(tsNode)
}

// buildNode converts a tree-sitter node to our internal AST node
func (b *ASTBuilder) buildNode(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	switch tsNode.Type() {
	case "translation_unit":
		return b.buildTranslationUnit(tsNode)
	case "function_definition":
		return b.buildFunctionDefinition(tsNode)
	case "compound_statement":
		return b.buildCompoundStatement(tsNode)
	case "declaration":
		return b.buildDeclaration(tsNode)
	case "if_statement":
		return b.buildIfStatement(tsNode)
	case "while_statement":
		return b.buildWhileStatement(tsNode)
	case "do_statement":
		return b.buildDoWhileStatement(tsNode)
	case "for_statement":
		return b.buildForStatement(tsNode)
	case "break_statement":
		return b.buildSimpleStatement(tsNode, NodeBreakStatement)
	case "continue_statement":
		return b.buildSimpleStatement(tsNode, NodeContinueStatement)
	case "return_statement":
		return b.buildReturnStatement(tsNode)
	case "switch_statement":
		return b.buildSimpleStatement(tsNode, NodeSwitchStatement)
	case "goto_statement":
		return b.buildGotoStatement(tsNode)
	case "labeled_statement":
		return b.buildLabeledStatement(tsNode)
	case "expression_statement":
		return b.buildExpressionStatement(tsNode)
	case "binary_expression":
		return b.buildBinaryExpression(tsNode)
	case "unary_expression":
		return b.buildUnaryExpression(tsNode)
	case "update_expression":
		return b.buildUpdateExpression(tsNode)
	case "assignment_expression":
		return b.buildAssignmentExpression(tsNode)
	case "subscript_expression":
		return b.buildSubscriptExpression(tsNode)
	case "call_expression":
		return b.buildCallExpression(tsNode)
	case "parenthesized_expression":
		return b.buildParenExpression(tsNode)
	case "comma_expression":
		return b.buildCommaExpression(tsNode)
	case "identifier", "field_identifier":
		return b.buildIdentifier(tsNode)
	case "number_literal":
		return b.buildLiteral(tsNode, NodeNumberLiteral)
	case "char_literal":
		return b.buildLiteral(tsNode, NodeCharLiteral)
	case "string_literal":
		return b.buildLiteral(tsNode, NodeStringLiteral)
	default:
		return b.buildGenericNode(tsNode)
	}
}

// buildTranslationUnit builds the root node of a source file
func (b *ASTBuilder) buildTranslationUnit(tsNode *sitter.Node) *Node {
	node := NewNode(NodeTranslationUnit)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) {
			childNode := b.buildNode(child)
			if childNode != nil {
				childNode.Parent = node
				node.Body = append(node.Body, childNode)
			}
		}
	}

	return node
}

// buildFunctionDefinition builds a function definition node
func (b *ASTBuilder) buildFunctionDefinition(tsNode *sitter.Node) *Node {
	node := NewNode(NodeFunctionDefinition)
	node.Location = b.getLocation(tsNode)

	if typeNode := b.getChildByFieldName(tsNode, "type"); typeNode != nil {
		node.DeclType = typeNode.Content(b.source)
	}

	// The function name and parameter list hang off the declarator
	if declNode := b.getChildByFieldName(tsNode, "declarator"); declNode != nil {
		node.Name = b.declaratorName(declNode)
		if paramsNode := b.getChildByFieldName(declNode, "parameters"); paramsNode != nil {
			node.Params = b.buildParameters(paramsNode)
		}
	}

	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		bodyAST := b.buildNode(bodyNode)
		if bodyAST != nil {
			node.Body = bodyAST.Body
		}
	}

	return node
}

// buildCompoundStatement builds a `{ ... }` block node
func (b *ASTBuilder) buildCompoundStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeCompoundStatement)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) && child.Type() != "{" && child.Type() != "}" {
			childNode := b.buildNode(child)
			if childNode != nil {
				node.Body = append(node.Body, childNode)
			}
		}
	}

	return node
}

// buildDeclaration builds a local variable declaration node
func (b *ASTBuilder) buildDeclaration(tsNode *sitter.Node) *Node {
	node := NewNode(NodeDeclaration)
	node.Location = b.getLocation(tsNode)

	if typeNode := b.getChildByFieldName(tsNode, "type"); typeNode != nil {
		node.DeclType = typeNode.Content(b.source)
	}

	if declNode := b.getChildByFieldName(tsNode, "declarator"); declNode != nil {
		if declNode.Type() == "init_declarator" {
			if nameNode := b.getChildByFieldName(declNode, "declarator"); nameNode != nil {
				node.Name = b.declaratorName(nameNode)
			}
			if valueNode := b.getChildByFieldName(declNode, "value"); valueNode != nil {
				node.Value = b.buildNode(valueNode)
			}
		} else {
			node.Name = b.declaratorName(declNode)
		}
	}

	return node
}

// buildIfStatement builds an if statement node
func (b *ASTBuilder) buildIfStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeIfStatement)
	node.Location = b.getLocation(tsNode)

	if condNode := b.getChildByFieldName(tsNode, "condition"); condNode != nil {
		node.Test = b.buildNode(condNode)
	}

	if consNode := b.getChildByFieldName(tsNode, "consequence"); consNode != nil {
		node.Consequent = b.buildNode(consNode)
	}

	if altNode := b.getChildByFieldName(tsNode, "alternative"); altNode != nil {
		// Recent tree-sitter-c grammars wrap the else branch in an else_clause
		if altNode.Type() == "else_clause" {
			for i := 0; i < int(altNode.ChildCount()); i++ {
				child := altNode.Child(i)
				if child != nil && !b.isTrivia(child) && child.Type() != "else" {
					node.Alternate = b.buildNode(child)
					break
				}
			}
		} else {
			node.Alternate = b.buildNode(altNode)
		}
	}

	return node
}

// buildWhileStatement builds a while loop node
func (b *ASTBuilder) buildWhileStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeWhileStatement)
	node.Location = b.getLocation(tsNode)

	if condNode := b.getChildByFieldName(tsNode, "condition"); condNode != nil {
		node.Test = b.buildNode(condNode)
	}

	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		node.Body = []*Node{b.buildNode(bodyNode)}
	}

	return node
}

// buildDoWhileStatement builds a do-while loop node
func (b *ASTBuilder) buildDoWhileStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeDoWhileStatement)
	node.Location = b.getLocation(tsNode)

	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		node.Body = []*Node{b.buildNode(bodyNode)}
	}

	if condNode := b.getChildByFieldName(tsNode, "condition"); condNode != nil {
		node.Test = b.buildNode(condNode)
	}

	return node
}

// buildForStatement builds a for loop node
func (b *ASTBuilder) buildForStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeForStatement)
	node.Location = b.getLocation(tsNode)

	if initNode := b.getChildByFieldName(tsNode, "initializer"); initNode != nil {
		node.Init = b.buildNode(initNode)
	}

	if condNode := b.getChildByFieldName(tsNode, "condition"); condNode != nil {
		node.Test = b.buildNode(condNode)
	}

	if updNode := b.getChildByFieldName(tsNode, "update"); updNode != nil {
		node.Update = b.buildNode(updNode)
	}

	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		node.Body = []*Node{b.buildNode(bodyNode)}
	} else if last := b.lastStatementChild(tsNode); last != nil {
		// Older tree-sitter-c grammars keep the body as an unnamed trailing child
		node.Body = []*Node{b.buildNode(last)}
	}

	return node
}

// buildSimpleStatement builds a statement node with no operands
func (b *ASTBuilder) buildSimpleStatement(tsNode *sitter.Node, nodeType NodeType) *Node {
	node := NewNode(nodeType)
	node.Location = b.getLocation(tsNode)
	return node
}

// buildReturnStatement builds a return statement node
func (b *ASTBuilder) buildReturnStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeReturnStatement)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) && child.Type() != "return" && child.Type() != ";" {
			node.Value = b.buildNode(child)
			break
		}
	}

	return node
}

// buildGotoStatement builds a goto statement node
func (b *ASTBuilder) buildGotoStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeGotoStatement)
	node.Location = b.getLocation(tsNode)

	if labelNode := b.getChildByFieldName(tsNode, "label"); labelNode != nil {
		node.Name = labelNode.Content(b.source)
	}

	return node
}

// buildLabeledStatement builds a labeled statement node
func (b *ASTBuilder) buildLabeledStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeLabeledStatement)
	node.Location = b.getLocation(tsNode)

	if labelNode := b.getChildByFieldName(tsNode, "label"); labelNode != nil {
		node.Name = labelNode.Content(b.source)
	}

	if last := b.lastStatementChild(tsNode); last != nil {
		node.Body = []*Node{b.buildNode(last)}
	}

	return node
}

// buildExpressionStatement builds an expression statement node
func (b *ASTBuilder) buildExpressionStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeExpressionStatement)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) && child.Type() != ";" {
			node.Argument = b.buildNode(child)
			break
		}
	}

	if node.Argument == nil {
		node.Type = NodeEmptyStatement
	}

	return node
}

// buildBinaryExpression builds a binary expression node
func (b *ASTBuilder) buildBinaryExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeBinaryExpression)
	node.Location = b.getLocation(tsNode)

	if leftNode := b.getChildByFieldName(tsNode, "left"); leftNode != nil {
		node.Left = b.buildNode(leftNode)
	}
	if opNode := b.getChildByFieldName(tsNode, "operator"); opNode != nil {
		node.Operator = opNode.Content(b.source)
	}
	if rightNode := b.getChildByFieldName(tsNode, "right"); rightNode != nil {
		node.Right = b.buildNode(rightNode)
	}

	return node
}

// buildUnaryExpression builds a unary expression node
func (b *ASTBuilder) buildUnaryExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeUnaryExpression)
	node.Location = b.getLocation(tsNode)

	if opNode := b.getChildByFieldName(tsNode, "operator"); opNode != nil {
		node.Operator = opNode.Content(b.source)
	}
	if argNode := b.getChildByFieldName(tsNode, "argument"); argNode != nil {
		node.Argument = b.buildNode(argNode)
	}

	return node
}

// buildUpdateExpression builds an increment/decrement expression node
func (b *ASTBuilder) buildUpdateExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeUpdateExpression)
	node.Location = b.getLocation(tsNode)

	if opNode := b.getChildByFieldName(tsNode, "operator"); opNode != nil {
		node.Operator = opNode.Content(b.source)
	}
	if argNode := b.getChildByFieldName(tsNode, "argument"); argNode != nil {
		node.Argument = b.buildNode(argNode)
	}

	return node
}

// buildAssignmentExpression builds an assignment expression node
func (b *ASTBuilder) buildAssignmentExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeAssignmentExpression)
	node.Location = b.getLocation(tsNode)

	if leftNode := b.getChildByFieldName(tsNode, "left"); leftNode != nil {
		node.Left = b.buildNode(leftNode)
	}
	if opNode := b.getChildByFieldName(tsNode, "operator"); opNode != nil {
		node.Operator = opNode.Content(b.source)
	}
	if rightNode := b.getChildByFieldName(tsNode, "right"); rightNode != nil {
		node.Right = b.buildNode(rightNode)
	}

	return node
}

// buildSubscriptExpression builds an array subscript node (buffer[i])
func (b *ASTBuilder) buildSubscriptExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeSubscriptExpression)
	node.Location = b.getLocation(tsNode)

	if argNode := b.getChildByFieldName(tsNode, "argument"); argNode != nil {
		node.Argument = b.buildNode(argNode)
	}
	if idxNode := b.getChildByFieldName(tsNode, "index"); idxNode != nil {
		node.Index = b.buildNode(idxNode)
	}

	return node
}

// buildCallExpression builds a function call node
func (b *ASTBuilder) buildCallExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeCallExpression)
	node.Location = b.getLocation(tsNode)

	if fnNode := b.getChildByFieldName(tsNode, "function"); fnNode != nil {
		node.Callee = b.buildNode(fnNode)
	}
	if argsNode := b.getChildByFieldName(tsNode, "arguments"); argsNode != nil {
		for i := 0; i < int(argsNode.ChildCount()); i++ {
			child := argsNode.Child(i)
			if child != nil && !b.isTrivia(child) &&
				child.Type() != "(" && child.Type() != ")" && child.Type() != "," {
				arg := b.buildNode(child)
				if arg != nil {
					node.Arguments = append(node.Arguments, arg)
				}
			}
		}
	}

	return node
}

// buildParenExpression builds a parenthesized expression node
func (b *ASTBuilder) buildParenExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeParenExpression)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) && child.Type() != "(" && child.Type() != ")" {
			node.Argument = b.buildNode(child)
			break
		}
	}

	return node
}

// buildCommaExpression builds a comma expression node
func (b *ASTBuilder) buildCommaExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeCommaExpression)
	node.Location = b.getLocation(tsNode)

	if leftNode := b.getChildByFieldName(tsNode, "left"); leftNode != nil {
		node.Left = b.buildNode(leftNode)
	}
	if rightNode := b.getChildByFieldName(tsNode, "right"); rightNode != nil {
		node.Right = b.buildNode(rightNode)
	}

	return node
}

// buildIdentifier builds an identifier node
func (b *ASTBuilder) buildIdentifier(tsNode *sitter.Node) *Node {
	node := NewNode(NodeIdentifier)
	node.Location = b.getLocation(tsNode)
	node.Name = tsNode.Content(b.source)
	return node
}

// buildLiteral builds a literal node
func (b *ASTBuilder) buildLiteral(tsNode *sitter.Node, nodeType NodeType) *Node {
	node := NewNode(nodeType)
	node.Location = b.getLocation(tsNode)
	node.Raw = tsNode.Content(b.source)
	return node
}

// buildGenericNode builds a generic node for constructs outside the subset
func (b *ASTBuilder) buildGenericNode(tsNode *sitter.Node) *Node {
	node := NewNode(NodeType(tsNode.Type()))
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) {
			childNode := b.buildNode(child)
			if childNode != nil {
				node.AddChild(childNode)
			}
		}
	}

	return node
}

// buildParameters builds parameter nodes from a parameter_list node
func (b *ASTBuilder) buildParameters(tsNode *sitter.Node) []*Node {
	var params []*Node

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil || b.isTrivia(child) || child.Type() != "parameter_declaration" {
			continue
		}

		param := NewNode(NodeParameter)
		param.Location = b.getLocation(child)
		if typeNode := b.getChildByFieldName(child, "type"); typeNode != nil {
			param.DeclType = typeNode.Content(b.source)
		}
		if declNode := b.getChildByFieldName(child, "declarator"); declNode != nil {
			param.Name = b.declaratorName(declNode)
		}
		params = append(params, param)
	}

	return params
}

// declaratorName digs the identifier out of a (possibly nested) declarator,
// skipping pointer and array wrappers.
func (b *ASTBuilder) declaratorName(tsNode *sitter.Node) string {
	if tsNode == nil {
		return ""
	}
	if tsNode.Type() == "identifier" || tsNode.Type() == "field_identifier" {
		return tsNode.Content(b.source)
	}
	if inner := b.getChildByFieldName(tsNode, "declarator"); inner != nil {
		return b.declaratorName(inner)
	}
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil {
			if name := b.declaratorName(child); name != "" {
				return name
			}
		}
	}
	return ""
}

// lastStatementChild returns the last non-trivia child, used for grammars
// that keep a statement as an unnamed trailing child.
func (b *ASTBuilder) lastStatementChild(tsNode *sitter.Node) *sitter.Node {
	for i := int(tsNode.ChildCount()) - 1; i >= 0; i-- {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) && child.Type() != ")" && child.Type() != ";" &&
			child.Type() != ":" {
			return child
		}
	}
	return nil
}

// Helper methods

// getLocation extracts location information from a tree-sitter node
func (b *ASTBuilder) getLocation(tsNode *sitter.Node) Location {
	return Location{
		File:      b.filename,
		StartLine: int(tsNode.StartPoint().Row) + 1,
		StartCol:  int(tsNode.StartPoint().Column),
		EndLine:   int(tsNode.EndPoint().Row) + 1,
		EndCol:    int(tsNode.EndPoint().Column),
	}
}

// getChildByFieldName gets a child node by field name
func (b *ASTBuilder) getChildByFieldName(tsNode *sitter.Node, fieldName string) *sitter.Node {
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && tsNode.FieldNameForChild(i) == fieldName {
			return child
		}
	}
	return nil
}

// isTrivia checks if a node is trivia (comments, blanks)
func (b *ASTBuilder) isTrivia(tsNode *sitter.Node) bool {
	nodeType := tsNode.Type()
	return nodeType == "comment" || nodeType == ""
}
