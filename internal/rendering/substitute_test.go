package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute_EscapeAsymmetry(t *testing.T) {
	out, missing := Substitute("<h1>{{CLIENT_NAME}}</h1>{{SECTION_BLOCKERS}}", map[Token]Value{
		TokenClientName: Plain("A < B & C"),
		TokenBlockers:   Markup("<ul><li>x</li></ul>"),
	})

	assert.Equal(t, "<h1>A &lt; B &amp; C</h1><ul><li>x</li></ul>", out)
	assert.Empty(t, missing)
}

func TestSubstitute_TolerantSpacing(t *testing.T) {
	out, missing := Substitute("{{ WEBSITE }}", map[Token]Value{TokenWebsite: Plain("x")})
	assert.Equal(t, "x", out)
	assert.Empty(t, missing)
}

func TestSubstitute_ValuesAreNotRescanned(t *testing.T) {
	out, missing := Substitute("{{CLIENT_NAME}}", map[Token]Value{TokenClientName: Markup("{{WEBSITE}}")})
	assert.Equal(t, "{{WEBSITE}}", out)
	assert.Empty(t, missing)
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{{A}} {{B}} {{A}} {single} {{ C }}")
	assert.Equal(t, []Token{"A", "B", "C"}, got)
}

func TestBlocks(t *testing.T) {
	assert.Equal(t, "", BulletList(nil))
	assert.Equal(t, "", BulletList([]string{" ", ""}))
	assert.Contains(t, BulletList([]string{"a & b"}), "<li style=\"margin:6px 0;\">a &amp; b</li>")

	assert.Equal(t, "", SectionBlock("Blockers / risks", ""))
	assert.Contains(t, SectionBlock("Wins & progress", "<ul></ul>"), "Wins &amp; progress")

	img := ImageBlock("img1", "")
	assert.Contains(t, img, `src="cid:img1"`)
	assert.NotContains(t, img, "font-size")
	assert.Contains(t, ImageBlock("img2", "Traffic"), "Traffic</div>")

	assert.Contains(t, GreetingBlock("O'Neil"), "Hi O&#39;Neil,")
	assert.Equal(t, `<p style="margin:16px 0 0 0;">Thanks,<br />Kim<br />kim@example.com</p>`,
		SignatureBlock(Sender{Name: "Kim", Email: "kim@example.com"}))
}
