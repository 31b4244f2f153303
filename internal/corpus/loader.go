package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docsync/internal/ir"
)

// Loader parses the existing documentation tree into DocDescriptors.
type Loader struct {
	indexFile string
}

func NewLoader(indexFile string) *Loader {
	if indexFile == "" {
		indexFile = "components.md"
	}
	return &Loader{indexFile: indexFile}
}

// recognizedHeadings are the fixed template's section names. Anything else is
// a custom section and survives regeneration verbatim.
var recognizedHeadings = map[string]bool{
	"Overview":        true,
	"Props Reference": true,
	"Slots":           true,
	"Usage Examples":  true,
	"Accessibility":   true,
	"Best Practices":  true,
	"See Also":        true,
}

// LoadTree parses every component document under root. Documents that cannot
// be parsed are treated as absent, with a warning recorded.
func (l *Loader) LoadTree(root string) ([]*ir.DocDescriptor, []ir.ValidationIssue, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") || d.Name() == l.indexFile {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("corpus walk of %s failed: %w", root, err)
	}
	sort.Strings(paths)

	var docs []*ir.DocDescriptor
	var issues []ir.ValidationIssue
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			issues = append(issues, corpusWarning(path, "failed to read document: %v", err))
			continue
		}
		doc, err := ParseDocument(path, string(content))
		if err != nil {
			issues = append(issues, corpusWarning(path, "unparseable document treated as absent: %v", err))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, issues, nil
}

// ParseDocument applies the fixed section grammar to one document. A missing
// title or metadata block is a parse failure; the caller treats the document
// as absent.
func ParseDocument(path, content string) (*ir.DocDescriptor, error) {
	lines := strings.Split(content, "\n")
	i := skipBlank(lines, 0)
	if i >= len(lines) || !strings.HasPrefix(lines[i], "# ") {
		return nil, fmt.Errorf("missing title line")
	}

	doc := &ir.DocDescriptor{
		Path:          path,
		ComponentName: strings.TrimSpace(strings.TrimPrefix(lines[i], "# ")),
	}
	i = skipBlank(lines, i+1)

	foundMeta := false
	for i < len(lines) && strings.HasPrefix(lines[i], ">") {
		parseMetaLine(doc, lines[i])
		foundMeta = true
		i++
	}
	if !foundMeta || doc.PackageName == "" {
		return nil, fmt.Errorf("missing metadata block")
	}

	for _, sec := range splitSections(lines[i:]) {
		applySection(doc, sec)
	}
	return doc, nil
}

func parseMetaLine(doc *ir.DocDescriptor, line string) {
	body := strings.TrimSpace(strings.TrimPrefix(line, ">"))
	switch {
	case strings.HasPrefix(body, "**Package:**"):
		doc.PackageName = strings.TrimSpace(strings.TrimPrefix(body, "**Package:**"))
	case strings.HasPrefix(body, "**Import:**"):
		doc.ImportStatement = strings.Trim(strings.TrimSpace(strings.TrimPrefix(body, "**Import:**")), "`")
	case strings.HasPrefix(body, "**Category:**"):
		doc.Category = strings.TrimSpace(strings.TrimPrefix(body, "**Category:**"))
	case strings.HasPrefix(body, "**Exports:**"):
		for _, name := range strings.Split(strings.TrimPrefix(body, "**Exports:**"), ",") {
			if name = strings.Trim(strings.TrimSpace(name), "`"); name != "" {
				doc.Exports = append(doc.Exports, name)
			}
		}
	}
}

// splitSections breaks the document remainder on level-2 headings, keeping
// body text verbatim apart from outer blank lines.
func splitSections(lines []string) []ir.Section {
	var sections []ir.Section
	var current *ir.Section
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.Trim(strings.Join(body, "\n"), "\n")
		sections = append(sections, *current)
		current = nil
		body = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "## ") {
			flush()
			heading := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			current = &ir.Section{Heading: heading, Custom: !recognizedHeadings[heading]}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

func applySection(doc *ir.DocDescriptor, sec ir.Section) {
	switch sec.Heading {
	case "Overview":
		doc.Overview = sec.Body
	case "Props Reference":
		doc.Props = parsePropsTable(sec.Body)
	case "Slots":
		doc.Slots = parseSlotsTable(sec.Body)
	case "Usage Examples":
		// Regenerated from source on every run; nothing to carry.
	case "Accessibility":
		doc.Accessibility = sec.Body
	case "Best Practices":
		doc.BestPractices = sec.Body
	case "See Also":
		doc.SeeAlso = sec.Body
	default:
		doc.CustomSections = append(doc.CustomSections, sec)
	}
}

func parsePropsTable(body string) []ir.PropDescriptor {
	var props []ir.PropDescriptor
	for _, cells := range tableRows(body, 4) {
		name, required := parsePropName(cells[0])
		if name == "" {
			continue
		}
		props = append(props, ir.PropDescriptor{
			Name:           name,
			TypeExpression: unquoteCell(cells[1]),
			DefaultValue:   defaultFromCell(cells[2]),
			Description:    cells[3],
			Required:       required,
		})
	}
	return props
}

func parseSlotsTable(body string) []ir.SlotDescriptor {
	var slots []ir.SlotDescriptor
	for _, cells := range tableRows(body, 3) {
		name := strings.Trim(cells[0], "`")
		if name == "" {
			continue
		}
		slots = append(slots, ir.SlotDescriptor{
			Name:        name,
			ElementType: unquoteCell(cells[1]),
			Description: cells[2],
		})
	}
	return slots
}

// tableRows parses pipe-table data rows with the expected column count,
// skipping the header and separator rows. Escaped pipes inside cells are
// unescaped.
func tableRows(body string, columns int) [][]string {
	var rows [][]string
	sawHeader := false
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		if !sawHeader {
			sawHeader = true
			continue
		}
		if strings.HasPrefix(strings.ReplaceAll(line, " ", ""), "|---") || strings.HasPrefix(strings.ReplaceAll(line, " ", ""), "|:--") {
			continue
		}
		cells := splitRow(line)
		if len(cells) != columns {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")

	var cells []string
	var cell strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			if r != '|' {
				cell.WriteRune('\\')
			}
			cell.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(r)
		}
	}
	if escaped {
		cell.WriteRune('\\')
	}
	cells = append(cells, strings.TrimSpace(cell.String()))
	return cells
}

// parsePropName reads a prop cell: `name` is required, `name?` is optional.
func parsePropName(cell string) (string, bool) {
	name := strings.Trim(cell, "`")
	if strings.HasSuffix(name, "?") {
		return strings.TrimSuffix(name, "?"), false
	}
	return name, true
}

func unquoteCell(cell string) string {
	return strings.Trim(cell, "`")
}

func defaultFromCell(cell string) string {
	if cell == "-" {
		return ""
	}
	return strings.Trim(cell, "`")
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return i
}

func corpusWarning(path, format string, args ...interface{}) ir.ValidationIssue {
	return ir.ValidationIssue{
		Severity:     ir.SeverityWarning,
		DocumentPath: path,
		RuleID:       "corpus-parse-failure",
		Message:      fmt.Sprintf(format, args...),
	}
}
