package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/config"
	"docsync/internal/extractor"
	"docsync/internal/ir"
	"docsync/internal/report"
)

const widgetTypes = `export interface WidgetProps {
  /** Text shown inside the widget. */
  label: string;
}
`

const widgetTypesWithDisabled = `export interface WidgetProps {
  /** Text shown inside the widget. */
  label: string;

  /** Disables interaction. */
  disabled?: boolean;
}
`

func writeSource(t *testing.T, root, pkg, rel, content string) {
	t.Helper()
	path := filepath.Join(root, "packages", pkg, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeWidgetPackage(t *testing.T, root string) {
	writeSource(t, root, "react-widget", "package.json", `{"name": "react-widget", "version": "1.0.0"}`)
	writeSource(t, root, "react-widget", "src/Widget.types.ts", widgetTypes)
	writeSource(t, root, "react-widget", "src/index.ts", "export { Widget } from './Widget';\nexport { useWidget } from './useWidget';\n")
}

func testConfig(t *testing.T, base string, rules string) *config.Config {
	t.Helper()
	rulesPath := filepath.Join(base, "category-rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(rules), 0o644))

	cfg := &config.Config{}
	cfg.Source.Root = filepath.Join(base, "src")
	cfg.Docs.Root = filepath.Join(base, "docs")
	cfg.Docs.IndexFile = "components.md"
	cfg.Docs.StagingDir = filepath.Join(base, ".staging")
	cfg.Rules.Path = rulesPath
	cfg.Run.Workers = 2
	return cfg
}

func runSync(t *testing.T, cfg *config.Config, opts Options) *report.RunReport {
	t.Helper()
	rep, err := NewSync(cfg, extractor.NewExtractor(), opts).Run(context.Background())
	require.NoError(t, err)
	return rep
}

func changeByName(rep *report.RunReport, name string) *ir.ChangeRecord {
	for i := range rep.Changes {
		if rep.Changes[i].ComponentName == name {
			return &rep.Changes[i]
		}
	}
	return nil
}

func TestSyncLifecycle(t *testing.T) {
	base := t.TempDir()
	writeWidgetPackage(t, filepath.Join(base, "src"))
	cfg := testConfig(t, base, "rules:\n  - pattern: \"react-widget\"\n    category: Utilities\n")

	docPath := filepath.Join(cfg.Docs.Root, "utilities", "widget.md")

	var firstRun []byte
	t.Run("first run promotes a new document", func(t *testing.T) {
		rep := runSync(t, cfg, Options{})
		require.False(t, rep.HasErrors())

		rec := changeByName(rep, "Widget")
		require.NotNil(t, rec)
		assert.Equal(t, ir.StatusNew, rec.Status)
		assert.Equal(t, 1, rep.Summary.New)

		var err error
		firstRun, err = os.ReadFile(docPath)
		require.NoError(t, err)
		assert.Contains(t, string(firstRun), "| `label` | `string` | - | Text shown inside the widget. |")

		idx, err := os.ReadFile(filepath.Join(cfg.Docs.Root, "components.md"))
		require.NoError(t, err)
		assert.Contains(t, string(idx), "- [Widget](utilities/widget.md)")

		// A clean run leaves no staging area behind.
		_, err = os.Stat(cfg.Docs.StagingDir)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rerun without source changes is unchanged and byte-identical", func(t *testing.T) {
		rep := runSync(t, cfg, Options{})
		require.False(t, rep.HasErrors())

		rec := changeByName(rep, "Widget")
		require.NotNil(t, rec)
		assert.Equal(t, ir.StatusUnchanged, rec.Status)
		assert.Empty(t, rep.Diffs)

		again, err := os.ReadFile(docPath)
		require.NoError(t, err)
		assert.Equal(t, firstRun, again)
	})

	t.Run("source change updates the document and keeps custom prose", func(t *testing.T) {
		doc, err := os.ReadFile(docPath)
		require.NoError(t, err)
		doc = append(doc, []byte("\n## Migration Notes\n\nKeep this paragraph.\n")...)
		require.NoError(t, os.WriteFile(docPath, doc, 0o644))

		writeSource(t, filepath.Join(base, "src"), "react-widget", "src/Widget.types.ts", widgetTypesWithDisabled)

		rep := runSync(t, cfg, Options{})
		require.False(t, rep.HasErrors())

		rec := changeByName(rep, "Widget")
		require.NotNil(t, rec)
		assert.Equal(t, ir.StatusUpdated, rec.Status)
		require.Len(t, rec.AddedProps, 1)
		assert.Equal(t, "disabled", rec.AddedProps[0].Name)
		require.Len(t, rep.Diffs, 1)
		assert.Contains(t, rep.Diffs[0].Diff, "disabled")

		updated, err := os.ReadFile(docPath)
		require.NoError(t, err)
		assert.Contains(t, string(updated), "| `disabled?` | `boolean` | - | Disables interaction. |")
		assert.Contains(t, string(updated), "## Migration Notes\n\nKeep this paragraph.")
	})

	t.Run("removed component is surfaced but its document survives", func(t *testing.T) {
		require.NoError(t, os.RemoveAll(filepath.Join(base, "src", "packages", "react-widget")))

		rep := runSync(t, cfg, Options{})

		rec := changeByName(rep, "Widget")
		require.NotNil(t, rec)
		assert.Equal(t, ir.StatusRemoved, rec.Status)

		_, err := os.Stat(docPath)
		assert.NoError(t, err)
	})
}

func TestSyncCategoryAmbiguityWithholdsBatch(t *testing.T) {
	base := t.TempDir()
	writeWidgetPackage(t, filepath.Join(base, "src"))
	writeSource(t, filepath.Join(base, "src"), "react-widget-pro", "package.json", `{"name": "react-widget-pro", "version": "1.0.0"}`)
	writeSource(t, filepath.Join(base, "src"), "react-widget-pro", "src/WidgetPro.types.ts", "export interface WidgetProProps {\n  open?: boolean;\n}\n")

	// No rule matches react-widget-pro and there is no default.
	cfg := testConfig(t, base, "rules:\n  - pattern: \"react-widget\"\n    category: Utilities\n")

	rep := runSync(t, cfg, Options{})
	require.True(t, rep.HasErrors())

	var ambiguity *ir.ValidationIssue
	for i := range rep.Issues {
		if rep.Issues[i].RuleID == "category-ambiguity" {
			ambiguity = &rep.Issues[i]
		}
	}
	require.NotNil(t, ambiguity)
	assert.Contains(t, ambiguity.Message, "react-widget-pro")

	// All-or-nothing: even the clean Widget document is withheld.
	_, err := os.Stat(filepath.Join(cfg.Docs.Root, "utilities", "widget.md"))
	assert.True(t, os.IsNotExist(err))

	// The escalated document stays in staging for operator review.
	staged, err := os.ReadFile(filepath.Join(cfg.Docs.StagingDir, "_unassigned", "widget-pro.md"))
	require.NoError(t, err)
	assert.Contains(t, string(staged), "# WidgetPro")
}

func TestSyncCachedExtractorSeesRuleChanges(t *testing.T) {
	base := t.TempDir()
	writeWidgetPackage(t, filepath.Join(base, "src"))
	cfg := testConfig(t, base, "rules:\n  - pattern: \"react-widget\"\n    category: Utilities\n")

	cached, err := extractor.NewCachedExtractor(8)
	require.NoError(t, err)

	rep, err := NewSync(cfg, cached, Options{Mode: "watch"}).Run(context.Background())
	require.NoError(t, err)
	require.False(t, rep.HasErrors())

	// The rules file is edited between runs so the package no longer matches.
	require.NoError(t, os.WriteFile(cfg.Rules.Path, []byte("rules:\n  - pattern: \"react-nothing\"\n    category: Other\n"), 0o644))

	rep, err = NewSync(cfg, cached, Options{Mode: "watch", Partial: true}).Run(context.Background())
	require.NoError(t, err)
	require.True(t, rep.HasErrors())

	// The cached descriptor must not carry the first run's category: the
	// document is escalated to the staging area, not rewritten in place.
	_, err = os.Stat(filepath.Join(cfg.Docs.StagingDir, "_unassigned", "widget.md"))
	assert.NoError(t, err)
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	base := t.TempDir()
	writeWidgetPackage(t, filepath.Join(base, "src"))
	cfg := testConfig(t, base, "rules:\n  - pattern: \"react-*\"\n    category: Utilities\n")

	rep := runSync(t, cfg, Options{DryRun: true})
	require.False(t, rep.HasErrors())
	assert.Equal(t, 1, rep.Summary.New)

	_, err := os.Stat(filepath.Join(cfg.Docs.Root, "utilities", "widget.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestSyncReportFile(t *testing.T) {
	base := t.TempDir()
	writeWidgetPackage(t, filepath.Join(base, "src"))
	cfg := testConfig(t, base, "default: Utilities\nrules: []\n")

	reportPath := filepath.Join(base, "report.json")
	rep := runSync(t, cfg, Options{ReportPath: reportPath})
	require.False(t, rep.HasErrors())

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), rep.RunID)
	assert.Contains(t, string(data), `"new": 1`)
}
