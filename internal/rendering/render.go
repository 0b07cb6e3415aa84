package rendering

import (
	"strings"

	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// Fallbacks for blank client fields
const (
	DefaultClientName = "Client"
	DefaultMonthLabel = "Monthly"
)

// Document is everything the renderer needs for one email. Draft holds the
// edited, normalized fields; Images are the screenshots in content-ID order.
type Document struct {
	ClientName   string
	MonthLabel   string
	Website      string
	DashboardURL string
	ContactName  string
	Sender       Sender
	Draft        types.Draft
	Images       []types.ImageAsset

	// Placement and Captions override the asset's own section and caption,
	// keyed by file name.
	Placement map[string]types.SectionName
	Captions  map[string]string
}

// Rendered is the final HTML plus what the renderer observed producing it
type Rendered struct {
	HTML       string
	Unresolved []Token  // Template placeholders that had no value and were removed
	ContentIDs []string // Content IDs placed into section blocks, in section order
	Fallback   bool     // The built-in template was used
}

// SectionOf returns where an image lands: the placement override when valid,
// then the asset's own section, then the default image section.
func (d *Document) SectionOf(img types.ImageAsset) types.SectionName {
	if s, ok := d.Placement[img.FileName]; ok && types.IsSection(string(s)) {
		return s
	}
	if types.IsSection(string(img.Section)) {
		return img.Section
	}
	return types.DefaultImageSection
}

// CaptionOf returns the caption override for an image, falling back to the
// asset's caption.
func (d *Document) CaptionOf(img types.ImageAsset) string {
	if c, ok := d.Captions[img.FileName]; ok {
		return c
	}
	return img.Caption
}

// Render fills tmpl with doc. Sections without items or images render as
// empty strings.
func Render(doc Document, tmpl Template) (Rendered, error) {
	if strings.TrimSpace(tmpl.Source) == "" {
		return Rendered{}, &RenderError{Reason: "template has no content"}
	}

	values := map[Token]Value{
		TokenClientName:      Plain(orDefault(doc.ClientName, DefaultClientName)),
		TokenMonthLabel:      Plain(orDefault(doc.MonthLabel, DefaultMonthLabel)),
		TokenWebsite:         Plain(strings.TrimSpace(doc.Website)),
		TokenSubject:         Plain(strings.TrimSpace(doc.Draft.Subject)),
		TokenGreeting:        Markup(GreetingBlock(doc.ContactName)),
		TokenSignature:       Markup(SignatureBlock(doc.Sender)),
		TokenMonthlyOverview: Plain(strings.TrimSpace(doc.Draft.MonthlyOverview)),
		TokenDashThisURL:     Plain(strings.TrimSpace(doc.DashboardURL)),
		TokenDashThisLine:    Plain(strings.TrimSpace(doc.Draft.DashThisLine)),
	}

	var cids []string
	for _, s := range types.Sections() {
		parts := []string{SectionBlock(s.Title, BulletList(doc.Draft.Section(s.Name)))}
		for _, img := range doc.Images {
			if doc.SectionOf(img) != s.Name {
				continue
			}
			parts = append(parts, ImageBlock(img.ContentID, doc.CaptionOf(img)))
			cids = append(cids, img.ContentID)
		}
		values[Token(s.Token)] = Markup(joinNonEmpty(parts, "\n"))
	}

	html, unresolved := Substitute(tmpl.Source, values)
	return Rendered{
		HTML:       html,
		Unresolved: unresolved,
		ContentIDs: cids,
		Fallback:   tmpl.Fallback,
	}, nil
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

func joinNonEmpty(parts []string, sep string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
