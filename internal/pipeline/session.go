package pipeline

import (
	"sort"

	"github.com/google/uuid"
	"github.com/metamendmarketing/reportbuilderv3/internal/drafting"
	"github.com/metamendmarketing/reportbuilderv3/internal/evidence"
	"github.com/metamendmarketing/reportbuilderv3/internal/ingestion"
	"github.com/metamendmarketing/reportbuilderv3/internal/mailer"
	"github.com/metamendmarketing/reportbuilderv3/internal/normalize"
	"github.com/metamendmarketing/reportbuilderv3/internal/rendering"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// Session is the explicit state of one report invocation. It is owned by the
// caller and replaced wholesale on regeneration.
type Session struct {
	RunID   uuid.UUID           `json:"run_id"`
	Request types.ReportRequest `json:"request"`

	Context  *ingestion.SupportingContext `json:"supporting_context"`
	Evidence evidence.Result              `json:"-"`
	Raw      drafting.Result              `json:"-"`

	// Draft is the normalized draft with any human edits applied.
	Draft     types.Draft                  `json:"draft"`
	Images    []types.ImageAsset           `json:"images"`
	Placement map[string]types.SectionName `json:"placement"`
	Captions  map[string]string            `json:"captions"`

	Template rendering.Template `json:"-"`
	Sender   rendering.Sender   `json:"sender"`
	Mail     mailer.Options     `json:"-"`
	Output   Output             `json:"-"`

	completed map[string]bool
	opts      Options
}

// Output holds the rendered artifacts
type Output struct {
	HTML        string
	PreviewHTML string
	EML         []byte
	PDF         []byte
	PDFError    error // Set when PDF export was requested but unavailable
	Unresolved  []rendering.Token
	ContentIDs  []string
}

// Edits are human changes applied before re-rendering. Nil fields keep the
// current value.
type Edits struct {
	Draft     *types.Draft
	Placement map[string]types.SectionName
	Captions  map[string]string
	To        *string
}

// Done reports whether a pipeline step finished for this session.
func (s *Session) Done(step string) bool {
	return s.completed[step]
}

// Notes returns every caveat gathered along the way, evidence notes first.
func (s *Session) Notes() []string {
	notes := append([]string{}, s.Evidence.Bundle.Notes...)
	if s.Raw.Failed {
		notes = append(notes, "draft generation failed: "+s.Raw.Reason)
	}
	if s.Output.PDFError != nil {
		notes = append(notes, s.Output.PDFError.Error())
	}
	return notes
}

// FileNames returns every uploaded file name in upload order.
func (s *Session) FileNames() []string {
	names := make([]string, 0, len(s.Request.Uploads))
	for _, u := range s.Request.Uploads {
		names = append(names, u.Name)
	}
	return names
}

func (s *Session) markDone(step string) {
	if s.completed == nil {
		s.completed = make(map[string]bool)
	}
	s.completed[step] = true
}

// seedPlacement applies the generator's caption suggestions to the images.
// Existing entries win so human choices survive.
func (s *Session) seedPlacement(suggestions []types.ImageCaption) {
	s.ensureMaps()

	known := make(map[string]bool, len(s.Images))
	for _, img := range s.Images {
		known[img.FileName] = true
	}
	for _, c := range suggestions {
		if !known[c.FileName] {
			continue
		}
		if _, ok := s.Placement[c.FileName]; !ok && types.IsSection(c.SuggestedSection) {
			s.Placement[c.FileName] = types.SectionName(c.SuggestedSection)
		}
		if _, ok := s.Captions[c.FileName]; !ok && c.Caption != "" {
			s.Captions[c.FileName] = c.Caption
		}
	}
	// Every screenshot lands somewhere.
	for _, img := range s.Images {
		if _, ok := s.Placement[img.FileName]; !ok {
			s.Placement[img.FileName] = types.DefaultImageSection
		}
	}
}

func (s *Session) ensureMaps() {
	if s.Placement == nil {
		s.Placement = make(map[string]types.SectionName)
	}
	if s.Captions == nil {
		s.Captions = make(map[string]string)
	}
}

// apply merges human edits into the session.
func (s *Session) apply(e Edits) {
	s.ensureMaps()
	if e.Draft != nil {
		s.Draft = normalize.Edited(*e.Draft)
	}
	for name, section := range e.Placement {
		if types.IsSection(string(section)) {
			s.Placement[name] = section
		}
	}
	for name, caption := range e.Captions {
		s.Captions[name] = caption
	}
	if e.To != nil {
		s.Mail.To = *e.To
	}
}

// PlacedFiles lists image file names by assigned section, sorted within a section.
func (s *Session) PlacedFiles() map[types.SectionName][]string {
	out := make(map[types.SectionName][]string)
	for name, section := range s.Placement {
		out[section] = append(out[section], name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}
