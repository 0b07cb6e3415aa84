package rendering

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func sampleDocument() Document {
	return Document{
		ClientName:   "Acme <Tools> & Co",
		MonthLabel:   "January 2026",
		Website:      "https://acme.example",
		DashboardURL: "https://dashthis.example/acme",
		ContactName:  "Sam",
		Sender:       Sender{Name: "Kim Lee", Title: "SEO Lead"},
		Draft: types.Draft{
			Subject:         "Acme SEO update",
			MonthlyOverview: "Steady month. Links fixed.",
			KeyHighlights:   []string{"Fixed 3 broken links", "Started FAQ refresh"},
			WinsProgress:    []string{"Rankings held"},
			CompletedTasks:  []string{"Link audit"},
			DashThisLine:    "For detail, see the dashboard.",
		},
	}
}

func TestRender_EscapesPlainFields(t *testing.T) {
	out, err := Render(sampleDocument(), DefaultTemplate())
	require.NoError(t, err)

	assert.Contains(t, out.HTML, "Acme &lt;Tools&gt; &amp; Co")
	assert.NotContains(t, out.HTML, "Acme <Tools>")

	// Markup blocks pass through unescaped.
	doc := parseHTML(t, out.HTML)
	assert.Equal(t, 4, doc.Find("ul li").Length())
	assert.Equal(t, "Acme <Tools> & Co", doc.Find("strong").First().Text())
}

func TestRender_NoUnresolvedTokens(t *testing.T) {
	out, err := Render(sampleDocument(), DefaultTemplate())
	require.NoError(t, err)

	assert.Empty(t, out.Unresolved)
	assert.NotContains(t, out.HTML, "{{")
	assert.True(t, out.Fallback)
}

func TestRender_EmptySectionOmitted(t *testing.T) {
	d := sampleDocument()
	d.Draft.Blockers = nil
	d.Draft.OutstandingTasks = []string{"  ", ""}

	out, err := Render(d, DefaultTemplate())
	require.NoError(t, err)

	assert.NotContains(t, out.HTML, "Blockers")
	assert.NotContains(t, out.HTML, "Outstanding")
	assert.Contains(t, out.HTML, "Key highlights")
	assert.Contains(t, out.HTML, "Wins &amp; progress")
}

func TestRender_ImagesInAssignedSections(t *testing.T) {
	d := sampleDocument()
	d.Images = types.AssignContentIDs([]types.Upload{
		{Name: "b.png", Data: []byte("b")},
		{Name: "a.jpg", Data: []byte("a")},
		{Name: "c.png", Data: []byte("c")},
	})
	d.Images[1].Section = types.SectionBlockers
	d.Placement = map[string]types.SectionName{"c.png": types.SectionCompletedTasks}
	d.Captions = map[string]string{"a.jpg": "Clicks <up>"}

	out, err := Render(d, DefaultTemplate())
	require.NoError(t, err)

	assert.Equal(t, []string{"img1", "img2", "img3"}, out.ContentIDs)

	doc := parseHTML(t, out.HTML)
	var srcs []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		srcs = append(srcs, src)
	})
	assert.Equal(t, []string{"cid:img1", "cid:img2", "cid:img3"}, srcs)
	assert.Contains(t, out.HTML, "Clicks &lt;up&gt;")

	// b.png has no items in blockers but still produces a block there.
	blockers := strings.Index(out.HTML, "cid:img2")
	completed := strings.Index(out.HTML, "cid:img3")
	assert.Less(t, strings.Index(out.HTML, "Completed tasks"), completed)
	assert.Less(t, blockers, completed)
}

func TestRender_InvalidPlacementFallsBack(t *testing.T) {
	d := sampleDocument()
	d.Images = []types.ImageAsset{{FileName: "x.png", ContentID: "img1", Section: "appendix"}}
	d.Placement = map[string]types.SectionName{"x.png": "sidebar"}

	assert.Equal(t, types.SectionKeyHighlights, d.SectionOf(d.Images[0]))
}

func TestRender_NoImages(t *testing.T) {
	out, err := Render(sampleDocument(), DefaultTemplate())
	require.NoError(t, err)

	assert.Empty(t, out.ContentIDs)
	assert.Equal(t, 0, parseHTML(t, out.HTML).Find("img").Length())
}

func TestRender_BlankClientFieldsUseDefaults(t *testing.T) {
	out, err := Render(Document{}, DefaultTemplate())
	require.NoError(t, err)

	assert.Contains(t, out.HTML, "<strong>Client</strong>")
	assert.Contains(t, out.HTML, "Monthly")
	assert.Contains(t, out.HTML, "Hi there,")
}

func TestRender_CustomTemplateUnresolvedTokens(t *testing.T) {
	tmpl := Template{Source: "<p>{{CLIENT_NAME}} {{UNKNOWN}} {{ALSO_UNKNOWN}} {{UNKNOWN}}</p>"}
	out, err := Render(sampleDocument(), tmpl)
	require.NoError(t, err)

	assert.Equal(t, "<p>Acme &lt;Tools&gt; &amp; Co   </p>", out.HTML)
	assert.Equal(t, []Token{"ALSO_UNKNOWN", "UNKNOWN"}, out.Unresolved)
	assert.False(t, out.Fallback)
}

func TestRender_EmptyTemplate(t *testing.T) {
	_, err := Render(sampleDocument(), Template{Source: "  "})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "render email: template has no content", err.Error())
}

func TestLoadTemplate(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		tmpl := LoadTemplate("")
		assert.True(t, tmpl.Fallback)
		assert.NoError(t, tmpl.Err)
		assert.Empty(t, tmpl.Missing())
	})

	t.Run("missing file", func(t *testing.T) {
		tmpl := LoadTemplate("/nonexistent/template.html")
		assert.True(t, tmpl.Fallback)
		var templateErr *TemplateError
		require.ErrorAs(t, tmpl.Err, &templateErr)
		assert.ErrorIs(t, tmpl.Err, ErrTemplateNotFound)
		assert.Equal(t, "/nonexistent/template.html", templateErr.Path)
		assert.Contains(t, tmpl.Err.Error(), "template file not found")
		assert.Equal(t, defaultTemplate, tmpl.Source)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.html")
		require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))
		tmpl := LoadTemplate(path)
		assert.True(t, tmpl.Fallback)
		assert.ErrorIs(t, tmpl.Err, ErrTemplateEmpty)
	})

	t.Run("custom file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.html")
		require.NoError(t, os.WriteFile(path, []byte("<p>{{CLIENT_NAME}}</p>"), 0o644))
		tmpl := LoadTemplate(path)
		assert.False(t, tmpl.Fallback)
		assert.NoError(t, tmpl.Err)
		assert.Equal(t, path, tmpl.Path)
		assert.Contains(t, tmpl.Missing(), TokenSignature)
	})
}
