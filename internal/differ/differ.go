package differ

import (
	"sort"
	"strings"

	"docsync/internal/ir"
)

// Classify compares a source descriptor against the prior document (nil if
// none) and produces the component's change record. Matching is by exact
// component name; prose-only differences never produce Updated.
func Classify(comp *ir.ComponentDescriptor, doc *ir.DocDescriptor) ir.ChangeRecord {
	rec := ir.ChangeRecord{
		ComponentName: comp.ComponentName,
		Category:      comp.Category,
	}

	if doc == nil {
		rec.Status = ir.StatusNew
		return rec
	}

	rec.AddedProps, rec.RemovedProps, rec.ChangedProps = diffProps(doc.Props, comp.Props)
	rec.AddedSlots, rec.RemovedSlots, rec.ChangedSlots = diffSlots(doc.Slots, comp.Slots)
	rec.AddedExports, rec.RemovedExports = diffStrings(exportsFromDoc(doc), comp.ExportedSymbols)

	if len(rec.AddedProps) > 0 || len(rec.RemovedProps) > 0 || len(rec.ChangedProps) > 0 ||
		len(rec.AddedSlots) > 0 || len(rec.RemovedSlots) > 0 || len(rec.ChangedSlots) > 0 ||
		len(rec.AddedExports) > 0 || len(rec.RemovedExports) > 0 {
		rec.Status = ir.StatusUpdated
	} else {
		rec.Status = ir.StatusUnchanged
	}
	return rec
}

// ClassifyRemoved records a document whose component no longer exists in
// source. The document itself is never deleted automatically.
func ClassifyRemoved(doc *ir.DocDescriptor) ir.ChangeRecord {
	return ir.ChangeRecord{
		ComponentName: doc.ComponentName,
		Category:      doc.Category,
		Status:        ir.StatusRemoved,
	}
}

// diffProps computes precise set differences. A prop counts as changed (not
// added+removed) when the same name persists with a different type, required
// flag, or default.
func diffProps(before, after []ir.PropDescriptor) (added, removed []ir.PropDescriptor, changed []ir.PropChange) {
	beforeByName := make(map[string]ir.PropDescriptor, len(before))
	for _, p := range before {
		beforeByName[p.Name] = p
	}
	afterNames := make(map[string]bool, len(after))

	for _, p := range after {
		afterNames[p.Name] = true
		prev, ok := beforeByName[p.Name]
		if !ok {
			added = append(added, p)
			continue
		}
		if prev.TypeExpression != p.TypeExpression || prev.Required != p.Required || prev.DefaultValue != p.DefaultValue {
			changed = append(changed, ir.PropChange{Name: p.Name, Before: prev, After: p})
		}
	}
	for _, p := range before {
		if !afterNames[p.Name] {
			removed = append(removed, p)
		}
	}
	return added, removed, changed
}

// diffSlots mirrors diffProps: a slot persisting under the same name with a
// different element type counts as changed, not as removed+added.
func diffSlots(before, after []ir.SlotDescriptor) (added, removed []ir.SlotDescriptor, changed []ir.SlotChange) {
	beforeByName := make(map[string]ir.SlotDescriptor, len(before))
	for _, s := range before {
		beforeByName[s.Name] = s
	}
	afterNames := make(map[string]bool, len(after))

	for _, s := range after {
		afterNames[s.Name] = true
		prev, ok := beforeByName[s.Name]
		if !ok {
			added = append(added, s)
			continue
		}
		if prev.ElementType != s.ElementType {
			changed = append(changed, ir.SlotChange{Name: s.Name, Before: prev, After: s})
		}
	}
	for _, s := range before {
		if !afterNames[s.Name] {
			removed = append(removed, s)
		}
	}
	return added, removed, changed
}

func diffStrings(before, after []string) (added, removed []string) {
	beforeSet := make(map[string]bool, len(before))
	for _, s := range before {
		beforeSet[s] = true
	}
	afterSet := make(map[string]bool, len(after))
	for _, s := range after {
		afterSet[s] = true
		if !beforeSet[s] {
			added = append(added, s)
		}
	}
	for _, s := range before {
		if !afterSet[s] {
			removed = append(removed, s)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// exportsFromDoc recovers the exported symbol set from the prior document:
// the Exports metadata line when present, otherwise the import statement's
// `import { A, B } from 'pkg';` clause.
func exportsFromDoc(doc *ir.DocDescriptor) []string {
	if len(doc.Exports) > 0 {
		return doc.Exports
	}
	stmt := doc.ImportStatement
	open := strings.IndexByte(stmt, '{')
	close := strings.IndexByte(stmt, '}')
	if open < 0 || close <= open {
		return nil
	}
	var names []string
	for _, part := range strings.Split(stmt[open+1:close], ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
