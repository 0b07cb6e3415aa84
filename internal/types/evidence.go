// Package types provides type definitions for structured data used throughout the report builder.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Confidence is the extractor's self-reported certainty for a claim
type Confidence string

// Confidence levels
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseConfidence normalizes free-form labels. Anything unrecognized is Low.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh
	case "medium", "med":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// EvidenceBundle is the bounded, source-attributed output of the extractor
type EvidenceBundle struct {
	KPIs      []KPI      `json:"kpis"`
	Wins      []Claim    `json:"wins"`
	Risks     []Claim    `json:"risks"`
	Movers    []Mover    `json:"movers"`
	WorkLinks []WorkLink `json:"work_to_result_links"`
	Notes     []string   `json:"notes"`
}

// KPI is a single metric observation
type KPI struct {
	Metric     string     `json:"metric"`
	Value      string     `json:"value"`
	Delta      string     `json:"delta,omitempty"`
	Period     string     `json:"period,omitempty"`
	SourceRef  string     `json:"source_ref"`
	Confidence Confidence `json:"confidence"`
}

// Claim is a win or risk statement
type Claim struct {
	Claim      string     `json:"claim"`
	Context    string     `json:"context,omitempty"` // Why it matters
	SourceRef  string     `json:"source_ref"`
	Confidence Confidence `json:"confidence"`
}

// EntityKind distinguishes page movers from query movers
type EntityKind string

// Entity kinds
const (
	EntityPage  EntityKind = "page"
	EntityQuery EntityKind = "query"
)

// Mover is a page or query whose ranking or traffic moved notably
type Mover struct {
	EntityKind EntityKind `json:"entity_kind"`
	Entity     string     `json:"entity"`
	Movement   string     `json:"movement"`
	SourceRef  string     `json:"source_ref"`
	Confidence Confidence `json:"confidence"`
}

// WorkLink connects a piece of completed work to an observed signal
type WorkLink struct {
	WorkItem          string     `json:"work_item"`
	ObservedSignal    string     `json:"observed_signal"`
	SuggestedPhrasing string     `json:"suggested_phrasing"`
	SourceRef         string     `json:"source_ref"`
	Confidence        Confidence `json:"confidence"`
}

// AddNote appends a caveat, skipping blanks.
func (b *EvidenceBundle) AddNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	b.Notes = append(b.Notes, note)
}

// ItemCount returns the number of grounded claims across all categories.
func (b *EvidenceBundle) ItemCount() int {
	return len(b.KPIs) + len(b.Wins) + len(b.Risks) + len(b.Movers) + len(b.WorkLinks)
}

// IsEmpty reports whether the bundle holds no claims. Notes do not count.
func (b *EvidenceBundle) IsEmpty() bool {
	return b.ItemCount() == 0
}
