package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// Default limits
const (
	DefaultMaxCharsPerFile = 12000
	DefaultMaxTotalChars   = 60000
)

// Limits bounds how much document text reaches the model
type Limits struct {
	MaxCharsPerFile int
	MaxTotalChars   int
	MaxRows         int
	MaxCols         int
}

// DefaultLimits returns the standard ingestion limits.
func DefaultLimits() Limits {
	return Limits{
		MaxCharsPerFile: DefaultMaxCharsPerFile,
		MaxTotalChars:   DefaultMaxTotalChars,
		MaxRows:         DefaultMaxRows,
		MaxCols:         DefaultMaxCols,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxCharsPerFile <= 0 {
		l.MaxCharsPerFile = d.MaxCharsPerFile
	}
	if l.MaxTotalChars <= 0 {
		l.MaxTotalChars = d.MaxTotalChars
	}
	if l.MaxRows <= 0 {
		l.MaxRows = d.MaxRows
	}
	if l.MaxCols <= 0 {
		l.MaxCols = d.MaxCols
	}
	return l
}

// Document is one successfully converted upload
type Document struct {
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	Converter string `json:"converter"`
	Text      string `json:"text"`
	Table     *Table `json:"table,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Hash      string `json:"hash"`
}

// SupportingContext is the bounded text context built from document uploads
type SupportingContext struct {
	Documents []Document `json:"documents"`
	Notes     []string   `json:"notes"`

	failures *multierror.Error
}

// Err aggregates every per-file failure, or nil.
func (c *SupportingContext) Err() error {
	return c.failures.ErrorOrNil()
}

// DocumentIDs returns the names of every ingested document.
func (c *SupportingContext) DocumentIDs() []string {
	ids := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		ids = append(ids, d.Name)
	}
	return ids
}

// TotalChars is the budgeted character count across documents.
func (c *SupportingContext) TotalChars() int {
	total := 0
	for _, d := range c.Documents {
		total += RuneLen(strings.TrimSuffix(d.Text, TruncationMarker))
	}
	return total
}

// PromptText serializes the documents for a prompt.
func (c *SupportingContext) PromptText() string {
	if c == nil || len(c.Documents) == 0 {
		return "(no supporting documents)"
	}
	var sb strings.Builder
	for i, d := range c.Documents {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "### %s (%s)\n%s", d.Name, d.Kind, d.Text)
	}
	return sb.String()
}

// BuildSupportingContext converts non-image uploads in order under a running
// character budget. Failures and skipped documents become notes; nothing
// here is fatal. Screenshots are ignored.
func BuildSupportingContext(ctx context.Context, uploads []types.Upload, limits Limits) *SupportingContext {
	limits = limits.withDefaults()
	registry := NewRegistry(limits)
	_, docs := types.SplitUploads(uploads)

	out := &SupportingContext{}
	used := 0
	for i, u := range docs {
		remaining := limits.MaxTotalChars - used
		if remaining <= 0 {
			out.Notes = append(out.Notes, fmt.Sprintf("Context budget reached; skipped %d remaining document(s)", len(docs)-i))
			break
		}

		res := registry.Convert(ctx, u.Name, u.DetectMIME(), u.Data)
		if res.Kind == KindFailure {
			out.Notes = append(out.Notes, fmt.Sprintf("could not parse %s: %s", u.Name, res.Reason))
			out.failures = multierror.Append(out.failures, fmt.Errorf("%s: %s", u.Name, res.Reason))
			continue
		}

		text, truncated := Truncate(res.Content(), min(limits.MaxCharsPerFile, remaining))
		used += RuneLen(strings.TrimSuffix(text, TruncationMarker))

		converter := ""
		if c := registry.Find(u.Name, u.DetectMIME()); c != nil {
			converter = c.Name()
		}
		out.Documents = append(out.Documents, Document{
			Name:      u.Name,
			Kind:      res.Kind,
			Converter: converter,
			Text:      text,
			Table:     res.Table,
			Truncated: truncated,
			Hash:      computeHash(u.Data),
		})
	}
	return out
}
