// Package types provides type definitions for structured data used throughout the report builder.
//
//nolint:revive // types is a standard Go package name pattern
package types

// SectionName identifies one of the fixed bulleted sections of a draft
type SectionName string

// The section enumeration is fixed across all tiers.
const (
	SectionKeyHighlights    SectionName = "key_highlights"
	SectionWinsProgress     SectionName = "wins_progress"
	SectionBlockers         SectionName = "blockers"
	SectionCompletedTasks   SectionName = "completed_tasks"
	SectionOutstandingTasks SectionName = "outstanding_tasks"
)

// DefaultImageSection is where screenshots land when no valid placement exists.
const DefaultImageSection = SectionKeyHighlights

// Section describes a bulleted section and its display title
type Section struct {
	Name  SectionName
	Title string
	Token string // Template placeholder name without braces
}

var sections = []Section{
	{Name: SectionKeyHighlights, Title: "Key highlights", Token: "SECTION_KEY_HIGHLIGHTS"},
	{Name: SectionWinsProgress, Title: "Wins & progress", Token: "SECTION_WINS_PROGRESS"},
	{Name: SectionBlockers, Title: "Blockers / risks", Token: "SECTION_BLOCKERS"},
	{Name: SectionCompletedTasks, Title: "Completed tasks", Token: "SECTION_COMPLETED_TASKS"},
	{Name: SectionOutstandingTasks, Title: "Outstanding / rolling", Token: "SECTION_OUTSTANDING_TASKS"},
}

// Sections returns the fixed section enumeration in display order.
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// IsSection reports whether name belongs to the fixed enumeration.
func IsSection(name string) bool {
	for _, s := range sections {
		if string(s.Name) == name {
			return true
		}
	}
	return false
}

// Draft is the structured writer output, before or after normalization
type Draft struct {
	Subject          string         `json:"subject"`
	MonthlyOverview  string         `json:"monthly_overview"`
	KeyHighlights    []string       `json:"key_highlights"`
	WinsProgress     []string       `json:"wins_progress"`
	Blockers         []string       `json:"blockers"`
	CompletedTasks   []string       `json:"completed_tasks"`
	OutstandingTasks []string       `json:"outstanding_tasks"`
	ImageCaptions    []ImageCaption `json:"image_captions"`
	DashThisLine     string         `json:"dashthis_line"`
}

// ImageCaption is the generator's suggestion for one screenshot
type ImageCaption struct {
	FileName         string `json:"file_name"`
	Caption          string `json:"caption,omitempty"`
	SuggestedSection string `json:"suggested_section,omitempty"`
}

// Section returns the items of a named section, or nil for unknown names.
func (d *Draft) Section(name SectionName) []string {
	switch name {
	case SectionKeyHighlights:
		return d.KeyHighlights
	case SectionWinsProgress:
		return d.WinsProgress
	case SectionBlockers:
		return d.Blockers
	case SectionCompletedTasks:
		return d.CompletedTasks
	case SectionOutstandingTasks:
		return d.OutstandingTasks
	}
	return nil
}

// SetSection replaces the items of a named section. Unknown names are ignored.
func (d *Draft) SetSection(name SectionName, items []string) {
	switch name {
	case SectionKeyHighlights:
		d.KeyHighlights = items
	case SectionWinsProgress:
		d.WinsProgress = items
	case SectionBlockers:
		d.Blockers = items
	case SectionCompletedTasks:
		d.CompletedTasks = items
	case SectionOutstandingTasks:
		d.OutstandingTasks = items
	}
}

// IsEmpty reports whether the draft carries no content at all.
func (d *Draft) IsEmpty() bool {
	if d.Subject != "" || d.MonthlyOverview != "" || d.DashThisLine != "" || len(d.ImageCaptions) > 0 {
		return false
	}
	for _, s := range sections {
		if len(d.Section(s.Name)) > 0 {
			return false
		}
	}
	return true
}
