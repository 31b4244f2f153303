package extractor

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"docsync/internal/ir"
)

// parseSnippets collects usage snippets from a story/example file. Every
// top-level export statement is one snippet; the smallest complete one is
// titled "Basic" and listed first, the rest keep their exported name in file
// order.
func parseSnippets(ctx context.Context, source []byte, originFile string) ([]ir.ExampleSnippet, error) {
	tree, err := parseTSX(ctx, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	var collected []ir.ExampleSnippet
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "export_statement" {
			continue
		}
		decl := stmt.ChildByFieldName("declaration")
		if decl == nil {
			continue
		}
		title := snippetTitle(decl, source)
		if title == "" {
			continue
		}
		collected = append(collected, ir.ExampleSnippet{
			Title:      title,
			SourceText: strings.TrimSpace(stmt.Content(source)),
			OriginFile: originFile,
		})
	}

	if len(collected) == 0 {
		return nil, nil
	}

	smallest := 0
	for i := 1; i < len(collected); i++ {
		if len(collected[i].SourceText) < len(collected[smallest].SourceText) {
			smallest = i
		}
	}

	out := make([]ir.ExampleSnippet, 0, len(collected))
	basic := collected[smallest]
	basic.Title = "Basic"
	out = append(out, basic)
	for i, s := range collected {
		if i == smallest {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func snippetTitle(decl *sitter.Node, source []byte) string {
	names := declaredNames(decl, source)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
