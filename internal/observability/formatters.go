// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		// Truncate long lines
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList writes up to limit bullet lines plus an overflow marker.
func writeList(sb *strings.Builder, items []string, limit int) {
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintEvidence outputs a summary of the extracted evidence bundle.
func (p *Printer) PrintEvidence(bundle *types.EvidenceBundle) {
	if bundle == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("KPIs: %d  Wins: %d  Risks: %d  Movers: %d  Links: %d\n",
		len(bundle.KPIs), len(bundle.Wins), len(bundle.Risks), len(bundle.Movers), len(bundle.WorkLinks)))

	if len(bundle.KPIs) > 0 {
		sb.WriteString("\nKPIs:\n")
		lines := make([]string, 0, len(bundle.KPIs))
		for _, k := range bundle.KPIs {
			line := fmt.Sprintf("%s: %s", k.Metric, k.Value)
			if k.Delta != "" {
				line += fmt.Sprintf(" (%s)", k.Delta)
			}
			lines = append(lines, line+fmt.Sprintf(" [%s]", k.Confidence))
		}
		writeList(&sb, lines, maxItemsToShow)
	}

	if len(bundle.Wins) > 0 {
		sb.WriteString("\nWins:\n")
		writeList(&sb, claims(bundle.Wins), maxItemsToShow)
	}

	if len(bundle.Risks) > 0 {
		sb.WriteString("\nRisks:\n")
		writeList(&sb, claims(bundle.Risks), 3)
	}

	if len(bundle.Notes) > 0 {
		sb.WriteString("\nNotes:\n")
		writeList(&sb, bundle.Notes, 3)
	}

	p.printBox("EVIDENCE BUNDLE", strings.TrimSuffix(sb.String(), "\n"))
}

func claims(cs []types.Claim) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, fmt.Sprintf("%s (%s)", c.Claim, c.SourceRef))
	}
	return out
}

// PrintDraft outputs the normalized draft section by section.
func (p *Printer) PrintDraft(draft *types.Draft) {
	if draft == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subject:  %s\n", draft.Subject))
	if draft.MonthlyOverview != "" {
		sb.WriteString(fmt.Sprintf("Overview: %s\n", draft.MonthlyOverview))
	}

	for _, s := range types.Sections() {
		items := draft.Section(s.Name)
		if len(items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s (%d):\n", s.Title, len(items)))
		writeList(&sb, items, maxItemsToShow)
	}

	if len(draft.ImageCaptions) > 0 {
		sb.WriteString("\nScreenshots:\n")
		for _, c := range draft.ImageCaptions {
			sb.WriteString(fmt.Sprintf("  • %s → %s\n", c.FileName, c.SuggestedSection))
		}
	}

	p.printBox("DRAFT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintNotes outputs pipeline caveats. Nothing is printed when there are none.
func (p *Printer) PrintNotes(notes []string) {
	if len(notes) == 0 {
		return
	}
	var sb strings.Builder
	writeList(&sb, notes, len(notes))
	p.printBox("NOTES", strings.TrimSuffix(sb.String(), "\n"))
}
