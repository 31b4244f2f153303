package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"docsync/internal/ir"
	"docsync/internal/scanner"
)

// Extractor builds ComponentDescriptors from resolved module files.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractComponent parses one component's resolved files into a descriptor.
// Single-member parse failures degrade to warnings; only an unparseable
// types file fails the component.
func (e *Extractor) ExtractComponent(ctx context.Context, unit *ir.ScanUnit) (*ir.ComponentDescriptor, []ir.ValidationIssue, error) {
	var issues []ir.ValidationIssue

	typesPath := unit.Files[ir.RoleTypes]
	source, err := os.ReadFile(typesPath)
	if err != nil {
		return nil, issues, fmt.Errorf("failed to read types file %s: %w", typesPath, err)
	}

	tree, err := parseTSX(ctx, source)
	if err != nil {
		return nil, issues, err
	}
	defer tree.Close()

	component := scanner.ComponentName(unit.PackageName)
	decl := findPropsDeclaration(tree.RootNode(), source, component)
	if decl == nil {
		return nil, issues, fmt.Errorf("no props declaration found for %s in %s", component, typesPath)
	}

	// collectMembers already keeps failed members with an unknown type, so
	// failures only surface as warnings here.
	props, slots, failures := collectMembers(memberContainer(decl), source)
	for _, f := range failures {
		issues = append(issues, ir.ValidationIssue{
			Severity: ir.SeverityWarning,
			RuleID:   "parse-failure",
			Message:  fmt.Sprintf("%s: member %q: %s", unit.PackageName, f.Member, f.Reason),
		})
	}

	desc := &ir.ComponentDescriptor{
		PackageName:   unit.PackageName,
		ComponentName: component,
		Props:         props,
		Slots:         slots,
		SourceVersion: packageVersion(unit.PackageRoot),
	}

	if hookPath, ok := unit.Files[ir.RoleHook]; ok {
		issues = append(issues, e.applyDefaults(ctx, desc, hookPath)...)
	}

	if indexPath, ok := unit.Files[ir.RoleIndex]; ok {
		issues = append(issues, e.applyExports(ctx, desc, indexPath)...)
	}

	for _, storyPath := range unit.StoryFiles {
		storySrc, err := os.ReadFile(storyPath)
		if err != nil {
			issues = append(issues, warnIssue(unit.PackageName, "scan-failure", "failed to read story file %s: %v", storyPath, err))
			continue
		}
		snippets, err := parseSnippets(ctx, storySrc, filepath.Base(storyPath))
		if err != nil {
			issues = append(issues, warnIssue(unit.PackageName, "parse-failure", "failed to parse story file %s: %v", storyPath, err))
			continue
		}
		desc.Examples = append(desc.Examples, snippets...)
	}

	return desc, issues, nil
}

func (e *Extractor) applyDefaults(ctx context.Context, desc *ir.ComponentDescriptor, hookPath string) []ir.ValidationIssue {
	source, err := os.ReadFile(hookPath)
	if err != nil {
		return []ir.ValidationIssue{warnIssue(desc.PackageName, "scan-failure", "failed to read hook file %s: %v", hookPath, err)}
	}

	known := make(map[string]bool, len(desc.Props))
	for _, p := range desc.Props {
		known[p.Name] = true
	}

	defaults, err := parseDefaults(ctx, source, known)
	if err != nil {
		return []ir.ValidationIssue{warnIssue(desc.PackageName, "parse-failure", "failed to parse hook file %s: %v", hookPath, err)}
	}

	for i := range desc.Props {
		if v, ok := defaults[desc.Props[i].Name]; ok {
			desc.Props[i].DefaultValue = v
		}
	}
	return nil
}

func (e *Extractor) applyExports(ctx context.Context, desc *ir.ComponentDescriptor, indexPath string) []ir.ValidationIssue {
	source, err := os.ReadFile(indexPath)
	if err != nil {
		return []ir.ValidationIssue{warnIssue(desc.PackageName, "scan-failure", "failed to read index file %s: %v", indexPath, err)}
	}
	tree, err := parseTSX(ctx, source)
	if err != nil {
		return []ir.ValidationIssue{warnIssue(desc.PackageName, "parse-failure", "failed to parse index file %s: %v", indexPath, err)}
	}
	defer tree.Close()

	desc.ExportedSymbols = collectExports(tree.RootNode(), source)
	return nil
}

// packageVersion reads the version from the package's package.json; empty on
// any failure.
func packageVersion(pkgRoot string) string {
	data, err := os.ReadFile(filepath.Join(pkgRoot, "package.json"))
	if err != nil {
		return ""
	}
	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return ""
	}
	return meta.Version
}

func warnIssue(pkg, rule, format string, args ...interface{}) ir.ValidationIssue {
	return ir.ValidationIssue{
		Severity: ir.SeverityWarning,
		RuleID:   rule,
		Message:  pkg + ": " + fmt.Sprintf(format, args...),
	}
}
