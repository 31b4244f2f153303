package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"docsync/internal/ir"
)

// StageMetric times one pipeline stage.
type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// DocDiff is a unified diff preview of one updated document.
type DocDiff struct {
	DocumentPath string `json:"document_path"`
	Diff         string `json:"diff"`
}

// Summary aggregates the run outcome.
type Summary struct {
	New       int `json:"new"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
}

// RunReport is the single run summary: every change record and every
// validation issue, in deterministic order.
type RunReport struct {
	RunID       string            `json:"run_id"`
	Mode        string            `json:"mode"`
	GeneratedAt string            `json:"generated_at"`
	SourceRoot  string            `json:"source_root"`
	DocsRoot    string            `json:"docs_root"`
	Stages      []StageMetric     `json:"stages"`
	Changes     []ir.ChangeRecord `json:"changes"`
	Issues      []ir.ValidationIssue `json:"issues,omitempty"`
	Diffs       []DocDiff         `json:"diffs,omitempty"`
	Summary     Summary           `json:"summary"`
}

// StageHandle marks a running stage.
type StageHandle struct {
	name    string
	started time.Time
}

func NewRunReport(mode, sourceRoot, docsRoot string) *RunReport {
	return &RunReport{
		RunID:       uuid.NewString(),
		Mode:        mode,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		SourceRoot:  sourceRoot,
		DocsRoot:    docsRoot,
		Stages:      []StageMetric{},
		Changes:     []ir.ChangeRecord{},
	}
}

func (r *RunReport) BeginStage(name string) StageHandle {
	return StageHandle{name: name, started: time.Now().UTC()}
}

func (r *RunReport) EndStage(h StageHandle, counters map[string]float64, err error) {
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     "ok",
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   counters,
	}
	if err != nil {
		m.Status = "error"
		m.Error = err.Error()
	}
	r.Stages = append(r.Stages, m)
}

func (r *RunReport) AddChange(rec ir.ChangeRecord) {
	r.Changes = append(r.Changes, rec)
}

func (r *RunReport) AddIssues(issues ...ir.ValidationIssue) {
	r.Issues = append(r.Issues, issues...)
}

// AddDocDiff records a unified diff between the prior and regenerated text
// of an updated document.
func (r *RunReport) AddDocDiff(relPath, before, after string) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: relPath + " (previous)",
		ToFile:   relPath + " (regenerated)",
		Context:  2,
	})
	if err != nil || text == "" {
		return
	}
	r.Diffs = append(r.Diffs, DocDiff{DocumentPath: relPath, Diff: text})
}

// HasErrors reports whether the run must complete with a non-zero status.
func (r *RunReport) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == ir.SeverityError {
			return true
		}
	}
	return false
}

// Finalize sorts changes by category then component name and computes the
// summary, keeping report output reproducible across runs.
func (r *RunReport) Finalize() {
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	sort.Slice(r.Changes, func(i, j int) bool {
		if r.Changes[i].Category == r.Changes[j].Category {
			return r.Changes[i].ComponentName < r.Changes[j].ComponentName
		}
		return r.Changes[i].Category < r.Changes[j].Category
	})
	sort.Slice(r.Issues, func(i, j int) bool {
		if r.Issues[i].Severity != r.Issues[j].Severity {
			return r.Issues[i].Severity == ir.SeverityError
		}
		if r.Issues[i].DocumentPath != r.Issues[j].DocumentPath {
			return r.Issues[i].DocumentPath < r.Issues[j].DocumentPath
		}
		return r.Issues[i].Message < r.Issues[j].Message
	})

	s := Summary{}
	for _, c := range r.Changes {
		switch c.Status {
		case ir.StatusNew:
			s.New++
		case ir.StatusUpdated:
			s.Updated++
		case ir.StatusUnchanged:
			s.Unchanged++
		case ir.StatusRemoved:
			s.Removed++
		}
	}
	for _, issue := range r.Issues {
		switch issue.Severity {
		case ir.SeverityError:
			s.Errors++
		case ir.SeverityWarning:
			s.Warnings++
		}
	}
	for _, st := range r.Stages {
		if st.Status != "ok" {
			s.Failed++
		}
	}
	r.Summary = s
}

// Save finalizes and writes the machine-readable report.
func (r *RunReport) Save(path string) error {
	r.Finalize()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Print writes the console summary grouped by category.
func (r *RunReport) Print(w io.Writer) {
	r.Finalize()

	fmt.Fprintf(w, "📋 Run %s (%s)\n", r.RunID, r.Mode)
	currentCategory := "\x00"
	for _, c := range r.Changes {
		if c.Category != currentCategory {
			currentCategory = c.Category
			label := currentCategory
			if label == "" {
				label = "(uncategorized)"
			}
			fmt.Fprintf(w, "\n%s\n", label)
		}
		fmt.Fprintf(w, "  %s %-24s %s\n", statusGlyph(c.Status), c.ComponentName, changeDetail(c))
	}

	if len(r.Issues) > 0 {
		fmt.Fprintf(w, "\nIssues:\n")
		for _, issue := range r.Issues {
			glyph := "⚠️"
			if issue.Severity == ir.SeverityError {
				glyph = "❌"
			}
			fmt.Fprintf(w, "  %s [%s] %s %s\n", glyph, issue.RuleID, issue.DocumentPath, issue.Message)
		}
	}

	fmt.Fprintf(w, "\n✅ %d new, %d updated, %d unchanged, %d removed | %d errors, %d warnings\n",
		r.Summary.New, r.Summary.Updated, r.Summary.Unchanged, r.Summary.Removed,
		r.Summary.Errors, r.Summary.Warnings)
}

func statusGlyph(s ir.Status) string {
	switch s {
	case ir.StatusNew:
		return "🆕"
	case ir.StatusUpdated:
		return "✏️"
	case ir.StatusRemoved:
		return "🗑️"
	default:
		return "  "
	}
}

func changeDetail(c ir.ChangeRecord) string {
	if c.Status != ir.StatusUpdated {
		return string(c.Status)
	}
	var parts []string
	if n := len(c.AddedProps); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d props", n))
	}
	if n := len(c.RemovedProps); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d props", n))
	}
	if n := len(c.ChangedProps); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d props", n))
	}
	if n := len(c.AddedSlots) + len(c.RemovedSlots) + len(c.ChangedSlots); n > 0 {
		parts = append(parts, fmt.Sprintf("%d slot changes", n))
	}
	if n := len(c.AddedExports) + len(c.RemovedExports); n > 0 {
		parts = append(parts, fmt.Sprintf("%d export changes", n))
	}
	return "updated (" + strings.Join(parts, ", ") + ")"
}
