package renderer

import (
	"fmt"
	"sort"
	"strings"

	"docsync/internal/category"
	"docsync/internal/ir"
)

// Renderer merges a source descriptor with the prior document's preserved
// content into the canonical document text.
type Renderer struct {
	rules     *category.Table
	indexFile string
}

func NewRenderer(rules *category.Table, indexFile string) *Renderer {
	if indexFile == "" {
		indexFile = "components.md"
	}
	return &Renderer{rules: rules, indexFile: indexFile}
}

// ResolveCategory applies the rule table to the component's package name.
// The *category.ErrNoMatch error must be escalated by the caller; the
// renderer never guesses a placement.
func (r *Renderer) ResolveCategory(packageName string) (string, error) {
	return r.rules.Resolve(packageName)
}

// DocRelPath is the document's path relative to the docs root:
// "<category-slug>/<component-slug>.md".
func DocRelPath(comp *ir.ComponentDescriptor) string {
	return Slug(comp.Category) + "/" + Slug(comp.ComponentName) + ".md"
}

// Render produces the full document text. Recognized sections are rebuilt
// from the descriptor; Overview, Accessibility and Best Practices prose is
// carried from the prior document; custom sections are re-emitted verbatim in
// their original order before the closing See Also.
func (r *Renderer) Render(comp *ir.ComponentDescriptor, prior *ir.DocDescriptor) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", comp.ComponentName)
	r.writeMetadata(&sb, comp)

	writeSection(&sb, "Overview", r.overviewBody(comp, prior))
	writeSection(&sb, "Props Reference", propsTable(comp.Props))
	if len(comp.Slots) > 0 {
		writeSection(&sb, "Slots", slotsTable(comp.Slots))
	}
	if len(comp.Examples) > 0 {
		writeSection(&sb, "Usage Examples", examplesBody(comp.Examples))
	}
	if prior != nil && prior.Accessibility != "" {
		writeSection(&sb, "Accessibility", prior.Accessibility)
	}
	if prior != nil && prior.BestPractices != "" {
		writeSection(&sb, "Best Practices", prior.BestPractices)
	}
	if prior != nil {
		for _, sec := range prior.CustomSections {
			writeSection(&sb, sec.Heading, sec.Body)
		}
	}
	writeSection(&sb, "See Also", "- [Component Index](../"+r.indexFile+")")

	return strings.TrimSuffix(sb.String(), "\n")
}

func (r *Renderer) writeMetadata(sb *strings.Builder, comp *ir.ComponentDescriptor) {
	fmt.Fprintf(sb, "> **Package:** %s\n", comp.PackageName)
	fmt.Fprintf(sb, "> **Import:** `import { %s } from '%s';`\n", comp.ComponentName, comp.PackageName)
	fmt.Fprintf(sb, "> **Category:** %s\n", comp.Category)
	if len(comp.ExportedSymbols) > 0 {
		names := append([]string(nil), comp.ExportedSymbols...)
		sort.Strings(names)
		for i, n := range names {
			names[i] = "`" + n + "`"
		}
		fmt.Fprintf(sb, "> **Exports:** %s\n", strings.Join(names, ", "))
	}
	sb.WriteString("\n")
}

func (r *Renderer) overviewBody(comp *ir.ComponentDescriptor, prior *ir.DocDescriptor) string {
	if prior != nil && prior.Overview != "" {
		return prior.Overview
	}
	return fmt.Sprintf("%s is provided by the `%s` package.", comp.ComponentName, comp.PackageName)
}

func writeSection(sb *strings.Builder, heading, body string) {
	fmt.Fprintf(sb, "## %s\n\n", heading)
	sb.WriteString(strings.Trim(body, "\n"))
	sb.WriteString("\n\n")
}

func propsTable(props []ir.PropDescriptor) string {
	var sb strings.Builder
	sb.WriteString("| Prop | Type | Default | Description |\n")
	sb.WriteString("| --- | --- | --- | --- |\n")
	for _, p := range props {
		name := p.Name
		if !p.Required {
			name += "?"
		}
		def := "-"
		if p.DefaultValue != "" {
			def = "`" + escapeCell(p.DefaultValue) + "`"
		}
		fmt.Fprintf(&sb, "| `%s` | `%s` | %s | %s |\n",
			name, escapeCell(p.TypeExpression), def, escapeCell(p.Description))
	}
	return sb.String()
}

func slotsTable(slots []ir.SlotDescriptor) string {
	var sb strings.Builder
	sb.WriteString("| Slot | Element | Description |\n")
	sb.WriteString("| --- | --- | --- |\n")
	for _, s := range slots {
		fmt.Fprintf(&sb, "| `%s` | `%s` | %s |\n",
			s.Name, escapeCell(s.ElementType), escapeCell(s.Description))
	}
	return sb.String()
}

func examplesBody(examples []ir.ExampleSnippet) string {
	var sb strings.Builder
	for i, ex := range examples {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "### %s\n\n", ex.Title)
		sb.WriteString("```tsx\n")
		sb.WriteString(ex.SourceText)
		sb.WriteString("\n```\n")
	}
	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// Slug normalizes a label to the tree's filename convention: lower-case
// kebab-case.
func Slug(label string) string {
	var sb strings.Builder
	lastDash := true
	for i, r := range label {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 && !lastDash {
				prev := label[i-1]
				if prev >= 'a' && prev <= 'z' {
					sb.WriteByte('-')
				}
			}
			sb.WriteRune(r - 'A' + 'a')
			lastDash = false
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
