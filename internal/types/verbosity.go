// Package types provides type definitions for structured data used throughout the report builder.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Tier is the verbosity level requested for a draft. Tiers are totally ordered
// from least (Quick) to most (Deep) detail.
type Tier string

const (
	// TierQuick is an ultra brief, scannable email
	TierQuick Tier = "quick"
	// TierStandard is a normal monthly email
	TierStandard Tier = "standard"
	// TierDeep adds context inside the same sections
	TierDeep Tier = "deep"
)

// NoLimit marks a bound whose maximum is uncapped.
const NoLimit = -1

// Tiers returns every tier in ascending order of detail.
func Tiers() []Tier {
	return []Tier{TierQuick, TierStandard, TierDeep}
}

// ParseTier maps user-facing labels ("Quick scan", "Standard", "Deep dive")
// onto a Tier. Unknown or empty input falls back to TierQuick.
func ParseTier(s string) Tier {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "deep"):
		return TierDeep
	case strings.HasPrefix(v, "standard"):
		return TierStandard
	default:
		return TierQuick
	}
}

// IsTier reports whether s names a tier explicitly rather than falling back.
func IsTier(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Tiers() {
		if strings.HasPrefix(v, string(t)) {
			return true
		}
	}
	return false
}

// Rank returns the position of the tier in the total order.
func (t Tier) Rank() int {
	switch t {
	case TierStandard:
		return 1
	case TierDeep:
		return 2
	default:
		return 0
	}
}

// Label returns the human-facing label used in prompts.
func (t Tier) Label() string {
	switch t {
	case TierStandard:
		return "Standard"
	case TierDeep:
		return "Deep dive"
	default:
		return "Quick scan"
	}
}

// Bound is an inclusive (Min, Max) range. Max may be NoLimit.
type Bound struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Unbounded reports whether the bound has no maximum.
func (b Bound) Unbounded() bool {
	return b.Max == NoLimit
}

// Cap truncates n to the bound's maximum.
func (b Bound) Cap(n int) int {
	if b.Unbounded() || n <= b.Max {
		return n
	}
	return b.Max
}

// AtMost reports whether b's maximum is no larger than other's maximum.
// NoLimit compares greater than any finite maximum.
func (b Bound) AtMost(other Bound) bool {
	if other.Unbounded() {
		return true
	}
	if b.Unbounded() {
		return false
	}
	return b.Max <= other.Max
}

// Bounds holds per-field size limits for one tier. Overview and DashThisLine
// are counted in sentences, everything else in items.
type Bounds struct {
	Overview      Bound                 `json:"monthly_overview"`
	Sections      map[SectionName]Bound `json:"sections"`
	ImageCaptions Bound                 `json:"image_captions"`
	DashThisLine  Bound                 `json:"dashthis_line"`
}

// Section returns the bound for a named section.
func (b Bounds) Section(name SectionName) Bound {
	if bound, ok := b.Sections[name]; ok {
		return bound
	}
	return Bound{Min: 0, Max: NoLimit}
}

// TierBounds is the single source of truth for draft size limits. Prompt
// construction and the normalizer both read from it.
func TierBounds(t Tier) Bounds {
	switch t {
	case TierDeep:
		return Bounds{
			Overview: Bound{Min: 3, Max: 4},
			Sections: map[SectionName]Bound{
				SectionKeyHighlights:    {Min: 4, Max: 6},
				SectionWinsProgress:     {Min: 3, Max: 6},
				SectionBlockers:         {Min: 2, Max: 5},
				SectionCompletedTasks:   {Min: 5, Max: 10},
				SectionOutstandingTasks: {Min: 5, Max: 10},
			},
			ImageCaptions: Bound{Min: 0, Max: NoLimit},
			DashThisLine:  Bound{Min: 1, Max: 2},
		}
	case TierStandard:
		return Bounds{
			Overview: Bound{Min: 3, Max: 4},
			Sections: map[SectionName]Bound{
				SectionKeyHighlights:    {Min: 3, Max: 5},
				SectionWinsProgress:     {Min: 3, Max: 5},
				SectionBlockers:         {Min: 2, Max: 4},
				SectionCompletedTasks:   {Min: 4, Max: 8},
				SectionOutstandingTasks: {Min: 4, Max: 8},
			},
			ImageCaptions: Bound{Min: 0, Max: NoLimit},
			DashThisLine:  Bound{Min: 1, Max: 1},
		}
	default:
		return Bounds{
			Overview: Bound{Min: 2, Max: 3},
			Sections: map[SectionName]Bound{
				SectionKeyHighlights:    {Min: 3, Max: 4},
				SectionWinsProgress:     {Min: 2, Max: 3},
				SectionBlockers:         {Min: 1, Max: 3},
				SectionCompletedTasks:   {Min: 3, Max: 5},
				SectionOutstandingTasks: {Min: 3, Max: 5},
			},
			// Keep screenshots light in quick mode.
			ImageCaptions: Bound{Min: 0, Max: 1},
			DashThisLine:  Bound{Min: 1, Max: 1},
		}
	}
}
