// Package evidence runs the grounded extraction pass over notes, supporting
// documents and screenshots.
package evidence

import (
	"context"
	"fmt"
	"strings"

	"github.com/metamendmarketing/reportbuilderv3/internal/ingestion"
	"github.com/metamendmarketing/reportbuilderv3/internal/llm"
	"github.com/metamendmarketing/reportbuilderv3/internal/prompts"
	"github.com/metamendmarketing/reportbuilderv3/internal/schemas"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// Temperature for the extraction call.
const Temperature float32 = 0.2

// NotesSourceRef is the source reference for claims taken from the notes.
const NotesSourceRef = "notes"

// Input is everything the extractor reads
type Input struct {
	Notes   string
	Context *ingestion.SupportingContext
	Images  []types.ImageAsset
	// StrictGrounding drops items whose source_ref names no known input.
	StrictGrounding bool
}

// Result is the extractor output. Failed is set when the model call or parse
// failed; the bundle then carries only notes.
type Result struct {
	Bundle      types.EvidenceBundle
	Raw         string
	Failed      bool
	Reason      string
	Diagnostics []string
	Repaired    bool
}

var evidenceShape = []llm.ShapeField{
	{Name: "kpis", Type: "[]{metric, value, delta, period, source_ref, confidence}"},
	{Name: "wins", Type: "[]{claim, context, source_ref, confidence}"},
	{Name: "risks", Type: "[]{claim, context, source_ref, confidence}"},
	{Name: "movers", Type: "[]{entity_kind, entity, movement, source_ref, confidence}"},
	{Name: "work_to_result_links", Type: "[]{work_item, observed_signal, suggested_phrasing, source_ref, confidence}"},
	{Name: "notes", Type: "[]string", Description: "caveats about missing or unreadable inputs"},
}

// BuildRequest assembles the single multimodal extraction request.
func BuildRequest(in Input) (llm.Request, error) {
	system, err := prompts.Get(prompts.EvidenceFile, "system")
	if err != nil {
		return llm.Request{}, err
	}

	names := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		names = append(names, img.FileName)
	}
	screenshots := "none"
	if len(names) > 0 {
		screenshots = strings.Join(names, ", ")
	}

	user, err := prompts.Render(prompts.EvidenceFile, "user", map[string]string{
		"Notes":       in.Notes,
		"Context":     in.Context.PromptText(),
		"Screenshots": screenshots,
		"Shape":       llm.DescribeShape(evidenceShape),
	})
	if err != nil {
		return llm.Request{}, err
	}

	parts := []llm.Part{llm.TextPart(user)}
	for _, img := range in.Images {
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

// Extract runs the extraction call. It never returns an error: call and
// parse failures become an empty bundle with an explanatory note.
func Extract(ctx context.Context, client llm.Client, in Input) Result {
	var res Result
	contextNotes := func() {
		if in.Context != nil {
			for _, n := range in.Context.Notes {
				res.Bundle.AddNote(n)
			}
		}
	}

	if client == nil {
		res.Failed = true
		res.Reason = "no model client configured"
		res.Bundle.AddNote("Evidence extraction skipped: no model client configured")
		contextNotes()
		return res
	}

	req, err := BuildRequest(in)
	if err != nil {
		res.Failed = true
		res.Reason = err.Error()
		res.Bundle.AddNote("Evidence extraction skipped: " + err.Error())
		contextNotes()
		return res
	}

	raw, err := client.Generate(ctx, req)
	res.Raw = raw
	if err != nil {
		res.Failed = true
		res.Reason = err.Error()
		res.Bundle.AddNote("Evidence extraction failed: " + err.Error())
		contextNotes()
		return res
	}

	parsed := llm.ParseJSONObject(raw)
	if parsed.Failed {
		res.Failed = true
		res.Reason = parsed.Reason
		res.Bundle.AddNote("Evidence extraction returned unreadable output: " + parsed.Reason)
		contextNotes()
		return res
	}
	res.Repaired = parsed.Repaired
	res.Diagnostics = schemas.Diagnose(schemas.Evidence, parsed.Value)

	bundle, unsourced := Decode(parsed.Value)
	if unsourced > 0 {
		bundle.AddNote(fmt.Sprintf("Dropped %d evidence item(s) without a source reference", unsourced))
	}
	if in.StrictGrounding {
		known := KnownSources(in.Context, in.Images)
		if dropped := Ground(&bundle, known); dropped > 0 {
			bundle.AddNote(fmt.Sprintf("Dropped %d evidence item(s) not traceable to the notes or an uploaded file", dropped))
		}
	}
	res.Bundle = bundle
	contextNotes()
	return res
}
