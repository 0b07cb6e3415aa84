// Package normalize enforces tier limits and fallbacks on a raw draft.
// Everything here is pure and idempotent.
package normalize

import (
	"strings"
	"unicode"

	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// Fallback values
const (
	DefaultSubject      = "SEO Monthly Update"
	DefaultDashThisLine = "For detailed performance, please use the DashThis dashboard link above."
)

// Draft returns a copy of d trimmed to the bounds of tier.
func Draft(d types.Draft, tier types.Tier) types.Draft {
	bounds := types.TierBounds(tier)

	out := types.Draft{
		Subject:         strings.TrimSpace(d.Subject),
		MonthlyOverview: CapSentences(d.MonthlyOverview, bounds.Overview.Max),
		DashThisLine:    CapSentences(d.DashThisLine, bounds.DashThisLine.Max),
	}
	if out.Subject == "" {
		out.Subject = DefaultSubject
	}
	if out.DashThisLine == "" {
		out.DashThisLine = DefaultDashThisLine
	}

	for _, s := range types.Sections() {
		out.SetSection(s.Name, CapItems(d.Section(s.Name), bounds.Section(s.Name).Max))
	}
	out.ImageCaptions = Captions(d.ImageCaptions, bounds.ImageCaptions.Max)
	return out
}

// Edited cleans a human-edited draft without applying tier caps: items are
// trimmed, blanks dropped and required fields filled with fallbacks.
func Edited(d types.Draft) types.Draft {
	out := types.Draft{
		Subject:         strings.TrimSpace(d.Subject),
		MonthlyOverview: strings.TrimSpace(d.MonthlyOverview),
		DashThisLine:    strings.TrimSpace(d.DashThisLine),
	}
	if out.Subject == "" {
		out.Subject = DefaultSubject
	}
	if out.DashThisLine == "" {
		out.DashThisLine = DefaultDashThisLine
	}
	for _, s := range types.Sections() {
		out.SetSection(s.Name, CapItems(d.Section(s.Name), types.NoLimit))
	}
	out.ImageCaptions = Captions(d.ImageCaptions, types.NoLimit)
	return out
}

// CapItems trims items, drops blanks and keeps at most limit in order.
// A negative limit keeps everything.
func CapItems(items []string, limit int) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if limit >= 0 && len(out) >= limit {
			break
		}
		out = append(out, item)
	}
	return out
}

// Captions cleans caption suggestions. Entries without a file name are
// dropped, the first entry per file wins, and an unknown section falls back
// to the default image section.
func Captions(captions []types.ImageCaption, limit int) []types.ImageCaption {
	out := make([]types.ImageCaption, 0, len(captions))
	seen := make(map[string]bool, len(captions))
	for _, c := range captions {
		c.FileName = strings.TrimSpace(c.FileName)
		c.Caption = strings.TrimSpace(c.Caption)
		c.SuggestedSection = strings.TrimSpace(c.SuggestedSection)
		if c.FileName == "" || seen[c.FileName] {
			continue
		}
		if !types.IsSection(c.SuggestedSection) {
			c.SuggestedSection = string(types.DefaultImageSection)
		}
		if limit >= 0 && len(out) >= limit {
			break
		}
		seen[c.FileName] = true
		out = append(out, c)
	}
	return out
}

// CapSentences keeps the first limit sentences of text, joined by single
// spaces. A negative limit keeps every sentence.
func CapSentences(text string, limit int) string {
	sentences := SplitSentences(text)
	if limit >= 0 && len(sentences) > limit {
		sentences = sentences[:limit]
	}
	return strings.Join(sentences, " ")
}

// SplitSentences splits on terminal punctuation (. ! ?) followed by
// whitespace. Text without terminal punctuation is one sentence.
func SplitSentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	var (
		out   []string
		start int
	)
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
