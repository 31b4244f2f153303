package validator

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"docsync/internal/index"
	"docsync/internal/ir"
)

// Batch is the regenerated tree under validation: every document keyed by
// its tree-relative path, plus the regenerated index.
type Batch struct {
	Docs      map[string]string
	Index     string
	IndexFile string
}

// Exists reports whether a tree-relative path will exist after promotion:
// either part of the batch or already present in the destination tree.
type Exists func(relPath string) bool

// Validate runs every structural and cross-reference rule over the batch.
// It never stops at the first finding; all issues are accumulated.
func Validate(batch Batch, exists Exists) []ir.ValidationIssue {
	var issues []ir.ValidationIssue

	for _, rel := range sortedPaths(batch.Docs) {
		content := batch.Docs[rel]
		issues = append(issues, checkMandatorySections(rel, content)...)
		issues = append(issues, checkLinks(rel, content, batch, exists)...)
		issues = append(issues, checkFilename(rel)...)
	}

	issues = append(issues, checkIndex(batch)...)
	return issues
}

var mandatoryHeadings = []string{"Overview", "Props Reference", "See Also"}

func checkMandatorySections(rel, content string) []ir.ValidationIssue {
	var issues []ir.ValidationIssue

	if !strings.HasPrefix(strings.TrimLeft(content, "\n"), "# ") {
		issues = append(issues, errorIssue(rel, "missing-section", "document has no title line"))
	}
	if !strings.Contains(content, "> **Package:**") {
		issues = append(issues, errorIssue(rel, "missing-section", "document has no metadata block"))
	}
	for _, heading := range mandatoryHeadings {
		if !strings.Contains(content, "\n## "+heading+"\n") {
			issues = append(issues, errorIssue(rel, "missing-section", fmt.Sprintf("mandatory section %q missing", heading)))
		}
	}
	return issues
}

// checkLinks resolves every link in the See Also section against the batch
// and the existing tree.
func checkLinks(rel, content string, batch Batch, exists Exists) []ir.ValidationIssue {
	var issues []ir.ValidationIssue
	body := sectionBody(content, "See Also")
	for _, target := range linkTargets(body) {
		if strings.Contains(target, "://") || strings.HasPrefix(target, "#") {
			continue
		}
		resolved := path.Join(path.Dir(rel), target)
		if resolved == batch.IndexFile {
			continue
		}
		if _, ok := batch.Docs[resolved]; ok {
			continue
		}
		if exists != nil && exists(resolved) {
			continue
		}
		issues = append(issues, errorIssue(rel, "broken-link", fmt.Sprintf("See Also target %q does not resolve within the tree", target)))
	}
	return issues
}

func checkFilename(rel string) []ir.ValidationIssue {
	base := path.Base(rel)
	name := strings.TrimSuffix(base, ".md")
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			continue
		}
		return []ir.ValidationIssue{{
			Severity:     ir.SeverityWarning,
			DocumentPath: rel,
			RuleID:       "filename-convention",
			Message:      fmt.Sprintf("filename %q is not lower-case kebab-case", base),
		}}
	}
	return nil
}

// checkIndex verifies the component index lists every generated document
// exactly once, in exactly one category.
func checkIndex(batch Batch) []ir.ValidationIssue {
	var issues []ir.ValidationIssue
	entries := index.Parse(batch.Index)

	listed := make(map[string]string)
	for _, e := range entries {
		if prev, ok := listed[e.RelPath]; ok && prev != e.Category {
			issues = append(issues, errorIssue(batch.IndexFile, "duplicate-category",
				fmt.Sprintf("document %s appears under both %q and %q", e.RelPath, prev, e.Category)))
			continue
		}
		listed[e.RelPath] = e.Category
	}

	for _, rel := range sortedPaths(batch.Docs) {
		if _, ok := listed[rel]; !ok {
			issues = append(issues, errorIssue(batch.IndexFile, "index-mismatch",
				fmt.Sprintf("document %s is not listed in the component index", rel)))
		}
	}
	return issues
}

func sectionBody(content, heading string) string {
	marker := "\n## " + heading + "\n"
	start := strings.Index(content, marker)
	if start < 0 {
		return ""
	}
	rest := content[start+len(marker):]
	if end := strings.Index(rest, "\n## "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func linkTargets(body string) []string {
	var targets []string
	for {
		open := strings.Index(body, "](")
		if open < 0 {
			return targets
		}
		rest := body[open+2:]
		close := strings.IndexByte(rest, ')')
		if close < 0 {
			return targets
		}
		targets = append(targets, rest[:close])
		body = rest[close+1:]
	}
}

func sortedPaths(docs map[string]string) []string {
	paths := make([]string, 0, len(docs))
	for p := range docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func errorIssue(rel, rule, msg string) ir.ValidationIssue {
	return ir.ValidationIssue{
		Severity:     ir.SeverityError,
		DocumentPath: rel,
		RuleID:       rule,
		Message:      msg,
	}
}
