package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"docsync/internal/category"
	"docsync/internal/config"
	"docsync/internal/corpus"
	"docsync/internal/differ"
	"docsync/internal/git"
	"docsync/internal/index"
	"docsync/internal/ir"
	"docsync/internal/renderer"
	"docsync/internal/report"
	"docsync/internal/scanner"
	"docsync/internal/staging"
	"docsync/internal/validator"
)

// ComponentExtractor is satisfied by both the plain and the caching
// extractor.
type ComponentExtractor interface {
	ExtractComponent(ctx context.Context, unit *ir.ScanUnit) (*ir.ComponentDescriptor, []ir.ValidationIssue, error)
}

// Options tune one synchronization run.
type Options struct {
	Mode        string
	ChangedOnly bool
	Partial     bool
	DryRun      bool
	ReportPath  string
}

// Sync drives one full synchronization: scan, extract, load, classify,
// render, validate, promote, report.
type Sync struct {
	cfg  *config.Config
	ext  ComponentExtractor
	opts Options
}

type renderedDoc struct {
	comp      *ir.ComponentDescriptor
	relPath   string
	content   string
	priorRaw  string
	status    ir.Status
	ambiguous bool
}

func NewSync(cfg *config.Config, ext ComponentExtractor, opts Options) *Sync {
	if opts.Mode == "" {
		opts.Mode = "sync"
	}
	return &Sync{cfg: cfg, ext: ext, opts: opts}
}

// Run executes the pipeline. The returned report carries every change record
// and issue; err is non-nil only for infrastructural failures that abort the
// run outright.
func (s *Sync) Run(ctx context.Context) (*report.RunReport, error) {
	rep := report.NewRunReport(s.opts.Mode, s.cfg.Source.Root, s.cfg.Docs.Root)

	rules, err := category.LoadTable(s.cfg.Rules.Path)
	if err != nil {
		return rep, err
	}
	rend := renderer.NewRenderer(rules, s.cfg.Docs.IndexFile)

	// Corpus loading runs concurrently with scan+extract; both sides join
	// before classification.
	type corpusResult struct {
		docs   []*ir.DocDescriptor
		issues []ir.ValidationIssue
		err    error
	}
	corpusStage := rep.BeginStage("corpus")
	corpusCh := make(chan corpusResult, 1)
	go func() {
		docs, issues, err := corpus.NewLoader(s.cfg.Docs.IndexFile).LoadTree(s.cfg.Docs.Root)
		corpusCh <- corpusResult{docs: docs, issues: issues, err: err}
	}()

	comps, err := s.scanAndExtract(ctx, rep)
	if err != nil {
		return rep, err
	}

	cres := <-corpusCh
	rep.EndStage(corpusStage, map[string]float64{"documents": float64(len(cres.docs))}, cres.err)
	if cres.err != nil {
		return rep, cres.err
	}
	rep.AddIssues(cres.issues...)

	s.assignCategories(rep, rules, comps)

	docsByName := make(map[string]*ir.DocDescriptor, len(cres.docs))
	for _, d := range cres.docs {
		docsByName[d.ComponentName] = d
	}

	rendered := s.classifyAndRender(rep, rend, comps, docsByName)

	area, err := staging.NewArea(s.cfg.Docs.StagingDir)
	if err != nil {
		return rep, err
	}
	// Withheld and unassigned documents stay in staging for operator review;
	// only a fully clean run removes the area.
	defer func() {
		if !rep.HasErrors() {
			area.Clean()
		}
	}()

	batch, err := s.stageBatch(rep, area, rendered, comps)
	if err != nil {
		return rep, err
	}

	s.validateStage(rep, batch)

	if !s.opts.DryRun {
		if err := s.promoteStage(rep, area, batch); err != nil {
			return rep, err
		}
	}

	if s.opts.ReportPath != "" {
		if err := rep.Save(s.opts.ReportPath); err != nil {
			return rep, fmt.Errorf("failed to save report: %w", err)
		}
	}
	rep.Finalize()
	return rep, nil
}

// scanAndExtract walks the library and extracts descriptors with a bounded
// worker pool; every component is independent.
func (s *Sync) scanAndExtract(ctx context.Context, rep *report.RunReport) ([]*ir.ComponentDescriptor, error) {
	h := rep.BeginStage("scan")
	var units []*ir.ScanUnit
	failures, err := scanner.NewScanner(s.cfg.Source.Ignore).ScanLibrary(s.cfg.Source.Root, func(u *ir.ScanUnit) {
		units = append(units, u)
	})
	for _, f := range failures {
		rep.AddIssues(ir.ValidationIssue{
			Severity: ir.SeverityWarning,
			RuleID:   "scan-failure",
			Message:  fmt.Sprintf("%s skipped: %s", f.PackageName, f.Reason),
		})
	}
	rep.EndStage(h, map[string]float64{"packages": float64(len(units)), "failures": float64(len(failures))}, err)
	if err != nil {
		return nil, err
	}

	if s.opts.ChangedOnly {
		units = s.filterChanged(rep, units)
	}

	h = rep.BeginStage("extract")
	comps, extractErr := s.extractAll(ctx, rep, units)
	rep.EndStage(h, map[string]float64{"components": float64(len(comps))}, extractErr)
	if extractErr != nil {
		return nil, extractErr
	}
	return comps, nil
}

func (s *Sync) filterChanged(rep *report.RunReport, units []*ir.ScanUnit) []*ir.ScanUnit {
	changed, err := git.ChangedFiles(s.cfg.Source.Root, "HEAD")
	if err != nil {
		rep.AddIssues(ir.ValidationIssue{
			Severity: ir.SeverityWarning,
			RuleID:   "scan-failure",
			Message:  fmt.Sprintf("changed-only scan fell back to full scan: %v", err),
		})
		return units
	}
	var kept []*ir.ScanUnit
	for _, u := range units {
		rel, err := filepath.Rel(s.cfg.Source.Root, u.PackageRoot)
		if err != nil {
			kept = append(kept, u)
			continue
		}
		if git.TouchesAny(changed, filepath.ToSlash(rel)) {
			kept = append(kept, u)
		}
	}
	fmt.Printf("📝 Changed-only scan: %d of %d packages touched.\n", len(kept), len(units))
	return kept
}

func (s *Sync) extractAll(ctx context.Context, rep *report.RunReport, units []*ir.ScanUnit) ([]*ir.ComponentDescriptor, error) {
	jobs := make(chan *ir.ScanUnit)
	var mu sync.Mutex
	var comps []*ir.ComponentDescriptor
	var issues []ir.ValidationIssue

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Run.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				desc, unitIssues, err := s.ext.ExtractComponent(ctx, unit)
				mu.Lock()
				issues = append(issues, unitIssues...)
				if err != nil {
					issues = append(issues, ir.ValidationIssue{
						Severity: ir.SeverityWarning,
						RuleID:   "extraction-failure",
						Message:  fmt.Sprintf("%s excluded from this run: %v", unit.PackageName, err),
					})
				} else {
					comps = append(comps, desc)
				}
				mu.Unlock()
			}
		}()
	}

	var cancelled error
feed:
	for _, u := range units {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- u:
		}
	}
	close(jobs)
	wg.Wait()

	rep.AddIssues(issues...)
	if cancelled != nil {
		return nil, cancelled
	}

	sort.Slice(comps, func(i, j int) bool { return comps[i].PackageName < comps[j].PackageName })
	return comps, nil
}

// assignCategories resolves the rule table per descriptor. A package with no
// matching rule is an escalation: the document will be staged but never
// promoted.
func (s *Sync) assignCategories(rep *report.RunReport, rules *category.Table, comps []*ir.ComponentDescriptor) {
	for _, c := range comps {
		cat, err := rules.Resolve(c.PackageName)
		if err != nil {
			rep.AddIssues(ir.ValidationIssue{
				Severity: ir.SeverityError,
				RuleID:   "category-ambiguity",
				Message:  fmt.Sprintf("%s: %v; document withheld in staging", c.PackageName, err),
			})
			continue
		}
		c.Category = cat
	}
}

func (s *Sync) classifyAndRender(rep *report.RunReport, rend *renderer.Renderer, comps []*ir.ComponentDescriptor, docsByName map[string]*ir.DocDescriptor) []renderedDoc {
	h := rep.BeginStage("classify-render")

	matched := make(map[string]bool, len(comps))
	var rendered []renderedDoc
	for _, c := range comps {
		prior := docsByName[c.ComponentName]
		if prior != nil {
			matched[c.ComponentName] = true
		}

		rec := differ.Classify(c, prior)
		rep.AddChange(rec)

		doc := renderedDoc{
			comp:      c,
			content:   rend.Render(c, prior),
			status:    rec.Status,
			ambiguous: c.Category == "",
		}
		if doc.ambiguous {
			doc.relPath = "_unassigned/" + renderer.Slug(c.ComponentName) + ".md"
		} else {
			doc.relPath = renderer.DocRelPath(c)
		}
		if prior != nil {
			if raw, err := os.ReadFile(prior.Path); err == nil {
				doc.priorRaw = string(raw)
			}
		}
		rendered = append(rendered, doc)
	}

	// Documents with no surviving source component: surfaced, never deleted.
	var removedNames []string
	for name := range docsByName {
		if !matched[name] {
			removedNames = append(removedNames, name)
		}
	}
	sort.Strings(removedNames)
	for _, name := range removedNames {
		rep.AddChange(differ.ClassifyRemoved(docsByName[name]))
	}

	rep.EndStage(h, map[string]float64{"rendered": float64(len(rendered)), "removed": float64(len(removedNames))}, nil)
	return rendered
}

// stageBatch writes regenerated documents and the index into the staging
// area. Unchanged documents are not rewritten; their prior versions stay
// authoritative.
func (s *Sync) stageBatch(rep *report.RunReport, area *staging.Area, rendered []renderedDoc, comps []*ir.ComponentDescriptor) (validator.Batch, error) {
	h := rep.BeginStage("stage")

	batch := validator.Batch{
		Docs:      make(map[string]string),
		IndexFile: s.cfg.Docs.IndexFile,
	}

	staged := 0
	for _, doc := range rendered {
		if doc.status == ir.StatusUnchanged && !doc.ambiguous {
			continue
		}
		if err := area.Write(doc.relPath, doc.content+"\n"); err != nil {
			rep.EndStage(h, nil, err)
			return batch, err
		}
		staged++
		if doc.ambiguous {
			continue
		}
		batch.Docs[doc.relPath] = doc.content + "\n"
		if doc.status == ir.StatusUpdated && doc.priorRaw != "" {
			rep.AddDocDiff(doc.relPath, doc.priorRaw, doc.content+"\n")
		}
	}

	var categorized []*ir.ComponentDescriptor
	for _, c := range comps {
		if c.Category != "" {
			categorized = append(categorized, c)
		}
	}
	batch.Index = index.Build(categorized)
	if err := area.Write(s.cfg.Docs.IndexFile, batch.Index); err != nil {
		rep.EndStage(h, nil, err)
		return batch, err
	}

	rep.EndStage(h, map[string]float64{"staged": float64(staged)}, nil)
	return batch, nil
}

func (s *Sync) validateStage(rep *report.RunReport, batch validator.Batch) {
	h := rep.BeginStage("validate")
	issues := validator.Validate(batch, func(rel string) bool {
		_, err := os.Stat(filepath.Join(s.cfg.Docs.Root, filepath.FromSlash(rel)))
		return err == nil
	})
	rep.AddIssues(issues...)
	rep.EndStage(h, map[string]float64{"issues": float64(len(issues))}, nil)
}

// promoteStage applies the staged batch. Default is all-or-nothing: any
// Error withholds every write. Partial mode promotes each document that has
// no Error of its own.
func (s *Sync) promoteStage(rep *report.RunReport, area *staging.Area, batch validator.Batch) error {
	h := rep.BeginStage("promote")

	errored := make(map[string]bool)
	anyError := false
	for _, issue := range rep.Issues {
		if issue.Severity != ir.SeverityError {
			continue
		}
		anyError = true
		if issue.DocumentPath != "" {
			errored[issue.DocumentPath] = true
		}
	}

	var promote []string
	switch {
	case !anyError:
		promote = append(promote, sortedKeys(batch.Docs)...)
		promote = append(promote, batch.IndexFile)
	case s.opts.Partial:
		for _, rel := range sortedKeys(batch.Docs) {
			if !errored[rel] {
				promote = append(promote, rel)
			}
		}
		if !errored[batch.IndexFile] {
			promote = append(promote, batch.IndexFile)
		}
	default:
		fmt.Println("⛔ Errors present; batch promotion withheld, previous documents remain authoritative.")
	}

	var err error
	if len(promote) > 0 {
		err = area.Promote(s.cfg.Docs.Root, promote)
	}
	rep.EndStage(h, map[string]float64{"promoted": float64(len(promote))}, err)
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
