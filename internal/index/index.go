package index

import (
	"fmt"
	"sort"
	"strings"

	"docsync/internal/ir"
	"docsync/internal/renderer"
)

// Entry is one component listed in the index document.
type Entry struct {
	ComponentName string
	Category      string
	RelPath       string
}

// Build renders the component index document: components grouped by
// category, both levels sorted for reproducible output.
func Build(comps []*ir.ComponentDescriptor) string {
	byCategory := make(map[string][]*ir.ComponentDescriptor)
	for _, c := range comps {
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString("# Component Index\n")
	for _, cat := range categories {
		group := byCategory[cat]
		sort.Slice(group, func(i, j int) bool {
			return group[i].ComponentName < group[j].ComponentName
		})
		fmt.Fprintf(&sb, "\n## %s\n\n", cat)
		for _, c := range group {
			fmt.Fprintf(&sb, "- [%s](%s)\n", c.ComponentName, renderer.DocRelPath(c))
		}
	}
	return sb.String()
}

// Parse reads index entries back out of an existing index document. Used by
// the validator to cross-check the tree.
func Parse(content string) []Entry {
	var entries []Entry
	category := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "## ") {
			category = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			continue
		}
		if !strings.HasPrefix(line, "- [") {
			continue
		}
		name, rel, ok := parseLink(strings.TrimPrefix(line, "- "))
		if !ok {
			continue
		}
		entries = append(entries, Entry{ComponentName: name, Category: category, RelPath: rel})
	}
	return entries
}

func parseLink(s string) (text, target string, ok bool) {
	close := strings.Index(s, "](")
	if !strings.HasPrefix(s, "[") || close < 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return s[1:close], s[close+2 : len(s)-1], true
}
