package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/metamendmarketing/reportbuilderv3/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintEvidence(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bundle := &types.EvidenceBundle{
		KPIs: []types.KPI{
			{Metric: "Organic clicks", Value: "1,240", Delta: "+12%", SourceRef: "gsc.csv", Confidence: types.ConfidenceHigh},
		},
		Wins:  []types.Claim{{Claim: "FAQ ranks top 3", SourceRef: "notes"}},
		Notes: []string{"could not parse broken.pdf: no text"},
	}

	p.PrintEvidence(bundle)
	output := buf.String()

	assert.Contains(t, output, "EVIDENCE BUNDLE")
	assert.Contains(t, output, "KPIs: 1  Wins: 1  Risks: 0")
	assert.Contains(t, output, "Organic clicks: 1,240 (+12%) [High]")
	assert.Contains(t, output, "FAQ ranks top 3 (notes)")
	assert.Contains(t, output, "could not parse broken.pdf")
}

func TestPrintEvidence_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintEvidence(nil)
	assert.Empty(t, buf.String())
}

func TestPrintDraft(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	items := make([]string, 8)
	for i := range items {
		items[i] = fmt.Sprintf("task %d", i+1)
	}
	p.PrintDraft(&types.Draft{
		Subject:        "January update",
		CompletedTasks: items,
		ImageCaptions:  []types.ImageCaption{{FileName: "gsc.png", SuggestedSection: "wins_progress"}},
	})
	output := buf.String()

	assert.Contains(t, output, "DRAFT")
	assert.Contains(t, output, "Subject:  January update")
	assert.Contains(t, output, "Completed tasks (8):")
	assert.Contains(t, output, "task 5")
	assert.NotContains(t, output, "task 6")
	assert.Contains(t, output, "... and 3 more")
	assert.Contains(t, output, "gsc.png → wins_progress")
	assert.NotContains(t, output, "Blockers")
}

func TestPrintNotes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintNotes(nil)
	assert.Empty(t, buf.String())

	p.PrintNotes([]string{"one", "two"})
	assert.Contains(t, buf.String(), "NOTES")
	assert.Contains(t, buf.String(), "• two")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
