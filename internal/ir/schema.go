package ir

// FileRole identifies which part of a component's module a resolved file plays.
type FileRole string

const (
	RoleTypes FileRole = "types"
	RoleHook  FileRole = "hook"
	RoleIndex FileRole = "index"
	RoleStory FileRole = "story"
)

// ScanUnit is the scanner's output for one component package: the package
// name plus every file the ordered candidate patterns resolved, keyed by role.
// Story files may resolve to more than one path.
type ScanUnit struct {
	PackageName string              `json:"package_name"`
	PackageRoot string              `json:"package_root"`
	Files       map[FileRole]string `json:"files"`
	StoryFiles  []string            `json:"story_files,omitempty"`
}

// PropDescriptor is one member of a component's public prop surface.
// Name is unique within a descriptor.
type PropDescriptor struct {
	Name           string `json:"name"`
	TypeExpression string `json:"type_expression"`
	DefaultValue   string `json:"default_value,omitempty"`
	Description    string `json:"description,omitempty"`
	Required       bool   `json:"required"`
}

// SlotDescriptor is a designated insertion point for caller-supplied
// sub-elements, distinct from a data-valued prop. Name is unique within a
// descriptor.
type SlotDescriptor struct {
	Name        string `json:"name"`
	ElementType string `json:"element_type"`
	Description string `json:"description,omitempty"`
}

// ExampleSnippet is one usage snippet collected from a story/example file.
// Ordering is insertion order from the scan; titles are not unique.
type ExampleSnippet struct {
	Title      string `json:"title"`
	SourceText string `json:"source_text"`
	OriginFile string `json:"origin_file"`
}

// ComponentDescriptor is the source-derived structural record for one
// component. Built once per run and never mutated afterwards.
type ComponentDescriptor struct {
	PackageName     string           `json:"package_name"`
	ComponentName   string           `json:"component_name"`
	Category        string           `json:"category,omitempty"`
	Props           []PropDescriptor `json:"props"`
	Slots           []SlotDescriptor `json:"slots"`
	ExportedSymbols []string         `json:"exported_symbols"`
	Examples        []ExampleSnippet `json:"examples,omitempty"`
	SourceVersion   string           `json:"source_version,omitempty"`
}

// PropByName returns the prop with the given name, or nil.
func (c *ComponentDescriptor) PropByName(name string) *PropDescriptor {
	for i := range c.Props {
		if c.Props[i].Name == name {
			return &c.Props[i]
		}
	}
	return nil
}

// Section is one block of an existing document: either a recognized template
// section or a custom one preserved verbatim.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	Custom  bool   `json:"custom"`
}

// DocDescriptor mirrors ComponentDescriptor as parsed from an existing
// document, plus every custom section in original order.
type DocDescriptor struct {
	Path            string           `json:"path"`
	ComponentName   string           `json:"component_name"`
	PackageName     string           `json:"package_name"`
	ImportStatement string           `json:"import_statement,omitempty"`
	Category        string           `json:"category,omitempty"`
	Exports         []string         `json:"exports,omitempty"`
	Overview        string           `json:"overview,omitempty"`
	Props           []PropDescriptor `json:"props"`
	Slots           []SlotDescriptor `json:"slots"`
	Accessibility   string           `json:"accessibility,omitempty"`
	BestPractices   string           `json:"best_practices,omitempty"`
	SeeAlso         string           `json:"see_also,omitempty"`
	CustomSections  []Section        `json:"custom_sections,omitempty"`
}

// Status classifies a component after differencing.
type Status string

const (
	StatusNew       Status = "new"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusRemoved   Status = "removed"
)

// PropChange is a same-name prop whose contract fields differ between source
// and the prior document.
type PropChange struct {
	Name   string         `json:"name"`
	Before PropDescriptor `json:"before"`
	After  PropDescriptor `json:"after"`
}

// SlotChange is a same-name slot whose element type differs between source
// and the prior document.
type SlotChange struct {
	Name   string         `json:"name"`
	Before SlotDescriptor `json:"before"`
	After  SlotDescriptor `json:"after"`
}

// ChangeRecord is the differencer's verdict for one component. Computed once
// per run and read-only afterwards.
type ChangeRecord struct {
	ComponentName  string           `json:"component_name"`
	Category       string           `json:"category,omitempty"`
	Status         Status           `json:"status"`
	AddedProps     []PropDescriptor `json:"added_props,omitempty"`
	RemovedProps   []PropDescriptor `json:"removed_props,omitempty"`
	ChangedProps   []PropChange     `json:"changed_props,omitempty"`
	AddedSlots     []SlotDescriptor `json:"added_slots,omitempty"`
	RemovedSlots   []SlotDescriptor `json:"removed_slots,omitempty"`
	ChangedSlots   []SlotChange     `json:"changed_slots,omitempty"`
	AddedExports   []string         `json:"added_exports,omitempty"`
	RemovedExports []string         `json:"removed_exports,omitempty"`
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one finding from the validator or a degraded pipeline
// step (scan/parse/corpus failures surface here too).
type ValidationIssue struct {
	Severity     Severity `json:"severity"`
	DocumentPath string   `json:"document_path,omitempty"`
	RuleID       string   `json:"rule_id"`
	Message      string   `json:"message"`
}
