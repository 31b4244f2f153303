package extractor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"docsync/internal/ir"
)

// memberFailure marks a single prop member that could not be parsed. The
// member is kept with an unknown type rather than aborting the component.
type memberFailure struct {
	Member string
	Reason string
}

func parseTSX(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsx.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tsx parse failed: %w", err)
	}
	return tree, nil
}

// findPropsDeclaration locates the exported props declaration for a
// component: an interface or type alias named "{Component}Props", falling
// back to the first declaration whose name ends in "Props".
func findPropsDeclaration(root *sitter.Node, source []byte, component string) *sitter.Node {
	want := component + "Props"
	var fallback *sitter.Node

	var visit func(n *sitter.Node)
	var found *sitter.Node
	visit = func(n *sitter.Node) {
		if found != nil {
			return
		}
		switch n.Type() {
		case "interface_declaration", "type_alias_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				break
			}
			name := nameNode.Content(source)
			if name == want {
				found = n
				return
			}
			if fallback == nil && strings.HasSuffix(name, "Props") {
				fallback = n
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(root)

	if found != nil {
		return found
	}
	return fallback
}

// memberContainer returns the object-type body holding property signatures
// for an interface or type alias declaration.
func memberContainer(decl *sitter.Node) *sitter.Node {
	if decl == nil {
		return nil
	}
	if body := decl.ChildByFieldName("body"); body != nil {
		return body
	}
	if value := decl.ChildByFieldName("value"); value != nil {
		if value.Type() == "object_type" {
			return value
		}
	}
	return nil
}

// collectMembers walks property signatures into prop and slot descriptors.
// A member whose type cannot be resolved is recorded with type "unknown"
// instead of failing the whole component.
func collectMembers(body *sitter.Node, source []byte) ([]ir.PropDescriptor, []ir.SlotDescriptor, []memberFailure) {
	var props []ir.PropDescriptor
	var slots []ir.SlotDescriptor
	var failures []memberFailure

	if body == nil {
		return props, slots, failures
	}

	seen := make(map[string]bool)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "property_signature" {
			continue
		}

		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			failures = append(failures, memberFailure{Member: "<anonymous>", Reason: "member has no name node"})
			continue
		}
		name := strings.Trim(nameNode.Content(source), `"'`)
		if seen[name] {
			continue
		}
		seen[name] = true

		typeExpr := "unknown"
		if ann := member.ChildByFieldName("type"); ann != nil {
			typeExpr = normalizeTypeExpression(ann.Content(source))
		} else {
			failures = append(failures, memberFailure{Member: name, Reason: "member has no type annotation"})
		}

		desc := docComment(member, source)
		required := !hasOptionalMarker(member, source)

		if isSlotType(typeExpr) {
			slots = append(slots, ir.SlotDescriptor{
				Name:        name,
				ElementType: typeExpr,
				Description: desc,
			})
			continue
		}

		props = append(props, ir.PropDescriptor{
			Name:           name,
			TypeExpression: typeExpr,
			Description:    desc,
			Required:       required,
		})
	}

	return props, slots, failures
}

// normalizeTypeExpression strips the leading ":" of a type annotation and
// collapses internal whitespace so extracted and corpus-parsed types compare
// equal.
func normalizeTypeExpression(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, ":")
	return strings.Join(strings.Fields(s), " ")
}

func hasOptionalMarker(member *sitter.Node, source []byte) bool {
	for i := 0; i < int(member.ChildCount()); i++ {
		if member.Child(i).Content(source) == "?" {
			return true
		}
	}
	return false
}

var slotTypeMarkers = []string{"ReactNode", "ReactElement", "JSX.Element", "Slot<"}

func isSlotType(typeExpr string) bool {
	for _, marker := range slotTypeMarkers {
		if strings.Contains(typeExpr, marker) {
			return true
		}
	}
	return false
}

// docComment pulls the JSDoc block immediately preceding a node, stripped of
// comment syntax and flattened to one line.
func docComment(node *sitter.Node, source []byte) string {
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	return cleanComment(prev.Content(source))
}

func cleanComment(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimPrefix(s, "/*")
	s = strings.TrimSuffix(s, "*/")

	var parts []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

// collectExports gathers exported names from an index file's export
// statements. "export *" re-exports cannot be enumerated and are skipped.
func collectExports(root *sitter.Node, source []byte) []string {
	var exports []string
	seen := make(map[string]bool)

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || name == "default" || seen[name] {
			return
		}
		seen[name] = true
		exports = append(exports, name)
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "export_statement" {
			continue
		}

		// export { Button, buttonClassNames } from './Button';
		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			child := stmt.NamedChild(j)
			if child.Type() != "export_clause" {
				continue
			}
			for k := 0; k < int(child.NamedChildCount()); k++ {
				spec := child.NamedChild(k)
				if spec.Type() != "export_specifier" {
					continue
				}
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					add(alias.Content(source))
					continue
				}
				if name := spec.ChildByFieldName("name"); name != nil {
					add(name.Content(source))
				}
			}
		}

		// export const x = ...; export function f() {...}
		if decl := stmt.ChildByFieldName("declaration"); decl != nil {
			for _, name := range declaredNames(decl, source) {
				add(name)
			}
		}
	}

	return exports
}

func declaredNames(decl *sitter.Node, source []byte) []string {
	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			d := decl.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			if name := d.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				names = append(names, name.Content(source))
			}
		}
		return names
	case "function_declaration", "class_declaration", "interface_declaration", "type_alias_declaration", "enum_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			return []string{name.Content(source)}
		}
	}
	return nil
}
