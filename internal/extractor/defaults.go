package extractor

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseDefaults extracts prop default values from a component's hook or
// behavior file. Two binding shapes are recognized:
//
//	const { size = 'medium', disabled = false } = props;
//	const appearance = props.appearance ?? 'primary';
//
// Only names already known from the type declarations are kept; unmatched
// defaults are ignored rather than invented.
func parseDefaults(ctx context.Context, source []byte, knownProps map[string]bool) (map[string]string, error) {
	tree, err := parseTSX(ctx, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	defaults := make(map[string]string)

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "object_assignment_pattern", "assignment_pattern":
			name, value := destructuredDefault(n, source)
			if name != "" && knownProps[name] {
				defaults[name] = value
			}
		case "variable_declarator":
			name, value := coalescedDefault(n, source)
			if name != "" && knownProps[name] {
				defaults[name] = value
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(tree.RootNode())

	return defaults, nil
}

// destructuredDefault reads `{ name = value }` inside an object pattern.
func destructuredDefault(n *sitter.Node, source []byte) (string, string) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return "", ""
	}
	switch left.Type() {
	case "shorthand_property_identifier_pattern", "identifier":
		return left.Content(source), normalizeDefault(right.Content(source))
	}
	return "", ""
}

// coalescedDefault reads `const name = props.name ?? value`.
func coalescedDefault(n *sitter.Node, source []byte) (string, string) {
	nameNode := n.ChildByFieldName("name")
	valueNode := n.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil || nameNode.Type() != "identifier" {
		return "", ""
	}
	if valueNode.Type() != "binary_expression" {
		return "", ""
	}
	op := valueNode.ChildByFieldName("operator")
	if op == nil || op.Content(source) != "??" {
		return "", ""
	}
	leftOperand := valueNode.ChildByFieldName("left")
	if leftOperand == nil || !strings.HasPrefix(leftOperand.Content(source), "props.") {
		return "", ""
	}
	right := valueNode.ChildByFieldName("right")
	if right == nil {
		return "", ""
	}
	return nameNode.Content(source), normalizeDefault(right.Content(source))
}

func normalizeDefault(raw string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(raw)), " ")
}
