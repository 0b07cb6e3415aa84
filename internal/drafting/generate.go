// Package drafting runs the email drafting pass. Its output is raw: callers
// normalize it before rendering.
package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/metamendmarketing/reportbuilderv3/internal/llm"
	"github.com/metamendmarketing/reportbuilderv3/internal/prompts"
	"github.com/metamendmarketing/reportbuilderv3/internal/schemas"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// Temperature for the drafting call.
const Temperature float32 = 0.25

// Input is everything the generator reads
type Input struct {
	Report        types.ReportRequest
	Evidence      types.EvidenceBundle
	Screenshots   []types.ImageAsset
	UploadedFiles []string
}

// Result carries the raw draft. When Failed is set the draft is the zero
// value and Reason explains why.
type Result struct {
	Draft       types.Draft
	Raw         string
	Failed      bool
	Reason      string
	Diagnostics []string
	Repaired    bool
}

// Shape returns the output fields requested from the model.
func Shape() []llm.ShapeField {
	fields := []llm.ShapeField{
		{Name: "subject", Required: true, Description: "email subject line"},
		{Name: "monthly_overview", Required: true, Description: "short paragraph"},
	}
	for _, s := range types.Sections() {
		fields = append(fields, llm.ShapeField{Name: string(s.Name), Type: "[]string", Description: s.Title})
	}
	fields = append(fields,
		llm.ShapeField{Name: "image_captions", Type: "[]{file_name, caption, suggested_section}"},
		llm.ShapeField{Name: "dashthis_line", Required: true, Description: "one line pointing to the dashboard"},
	)
	return fields
}

func describeBound(b types.Bound, unit string) string {
	if b.Unbounded() {
		return fmt.Sprintf("at least %d %s, no fixed maximum", b.Min, unit)
	}
	if b.Min == b.Max {
		return fmt.Sprintf("exactly %d %s", b.Max, unit)
	}
	return fmt.Sprintf("%d-%d %s", b.Min, b.Max, unit)
}

// Limits renders the tier bounds as prompt text.
func Limits(tier types.Tier) string {
	b := types.TierBounds(tier)
	lines := []string{"- monthly_overview: " + describeBound(b.Overview, "sentences")}
	for _, s := range types.Sections() {
		lines = append(lines, fmt.Sprintf("- %s: %s", s.Name, describeBound(b.Section(s.Name), "bullets")))
	}
	captions := "one per screenshot worth captioning"
	if !b.ImageCaptions.Unbounded() {
		captions = fmt.Sprintf("at most %d", b.ImageCaptions.Max)
	}
	lines = append(lines,
		"- image_captions: "+captions,
		"- dashthis_line: "+describeBound(b.DashThisLine, "sentence(s)"),
	)
	return strings.Join(lines, "\n")
}

type promptContext struct {
	Client        clientContext        `json:"client"`
	Notes         string               `json:"omni_notes"`
	Evidence      types.EvidenceBundle `json:"evidence"`
	Screenshots   []string             `json:"screenshots"`
	UploadedFiles []string             `json:"uploaded_files"`
}

type clientContext struct {
	Name         string `json:"name"`
	Website      string `json:"website,omitempty"`
	Month        string `json:"month"`
	PeriodStart  string `json:"period_start,omitempty"`
	PeriodEnd    string `json:"period_end,omitempty"`
	DashboardURL string `json:"dashboard_url,omitempty"`
	Contact      string `json:"contact_name,omitempty"`
}

// BuildRequest assembles the single drafting request.
func BuildRequest(in Input) (llm.Request, error) {
	system, err := prompts.Get(prompts.DraftingFile, "system")
	if err != nil {
		return llm.Request{}, err
	}

	r := in.Report
	pc := promptContext{
		Client: clientContext{
			Name:         r.ClientName,
			Website:      r.Website,
			Month:        r.MonthLabel,
			DashboardURL: r.DashboardURL,
			Contact:      r.ContactName,
		},
		Notes:         r.Notes,
		Evidence:      in.Evidence,
		Screenshots:   []string{},
		UploadedFiles: in.UploadedFiles,
	}
	if !r.PeriodStart.IsZero() {
		pc.Client.PeriodStart = r.PeriodStart.Format("2006-01-02")
	}
	if !r.PeriodEnd.IsZero() {
		pc.Client.PeriodEnd = r.PeriodEnd.Format("2006-01-02")
	}
	for _, img := range in.Screenshots {
		pc.Screenshots = append(pc.Screenshots, img.FileName)
	}
	if pc.UploadedFiles == nil {
		pc.UploadedFiles = []string{}
	}
	contextJSON, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return llm.Request{}, fmt.Errorf("failed to encode draft context: %w", err)
	}

	names := make([]string, 0, len(types.Sections()))
	for _, s := range types.Sections() {
		names = append(names, string(s.Name))
	}

	user, err := prompts.Render(prompts.DraftingFile, "user", map[string]string{
		"Tier":     r.Tier.Label(),
		"Limits":   Limits(r.Tier),
		"Shape":    llm.DescribeShape(Shape()),
		"Sections": strings.Join(names, ", "),
		"Context":  string(contextJSON),
	})
	if err != nil {
		return llm.Request{}, err
	}

	parts := []llm.Part{llm.TextPart(user)}
	for _, img := range in.Screenshots {
		parts = append(parts, llm.ImageParts(img.FileName, img.MIMEType, img.Data)...)
	}

	return llm.Request{
		System:      system,
		Parts:       parts,
		Temperature: Temperature,
		Tier:        llm.TierStandard,
		JSON:        true,
	}, nil
}

// Generate runs the drafting call. Failures never surface as errors; they
// produce the Failed sentinel instead.
func Generate(ctx context.Context, client llm.Client, in Input) Result {
	if client == nil {
		return Result{Failed: true, Reason: "no model client configured"}
	}

	req, err := BuildRequest(in)
	if err != nil {
		return Result{Failed: true, Reason: err.Error()}
	}

	raw, err := client.Generate(ctx, req)
	if err != nil {
		return Result{Raw: raw, Failed: true, Reason: err.Error()}
	}

	parsed := llm.ParseJSONObject(raw)
	if parsed.Failed {
		return Result{Raw: raw, Failed: true, Reason: parsed.Reason}
	}

	return Result{
		Draft:       Decode(parsed.Value),
		Raw:         raw,
		Diagnostics: schemas.Diagnose(schemas.Draft, parsed.Value),
		Repaired:    parsed.Repaired,
	}
}

// Decode loosely maps a parsed object onto a draft. No limits are applied.
func Decode(obj map[string]any) types.Draft {
	d := types.Draft{
		Subject:         llm.String(obj, "subject"),
		MonthlyOverview: llm.String(obj, "monthly_overview"),
		DashThisLine:    llm.String(obj, "dashthis_line"),
	}
	for _, s := range types.Sections() {
		d.SetSection(s.Name, llm.StringSlice(obj, string(s.Name)))
	}
	for _, m := range llm.Objects(obj, "image_captions") {
		d.ImageCaptions = append(d.ImageCaptions, types.ImageCaption{
			FileName:         llm.String(m, "file_name"),
			Caption:          llm.String(m, "caption"),
			SuggestedSection: llm.String(m, "suggested_section"),
		})
	}
	return d
}
