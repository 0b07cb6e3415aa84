package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeHTML_EmptyString(t *testing.T) {
	assert.Equal(t, "", EscapeHTML(""))
}

func TestEscapeHTML_NoSpecialCharacters(t *testing.T) {
	text := "Organic clicks up 12% month over month"
	assert.Equal(t, text, EscapeHTML(text))
}

func TestEscapeHTML_Ampersand(t *testing.T) {
	assert.Equal(t, "Smith &amp; Sons", EscapeHTML("Smith & Sons"))
}

func TestEscapeHTML_AngleBrackets(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", EscapeHTML("<b>bold</b>"))
}

func TestEscapeHTML_Quotes(t *testing.T) {
	assert.Equal(t, "say &quot;hi&quot; &#39;now&#39;", EscapeHTML(`say "hi" 'now'`))
}

func TestEscapeHTML_AlreadyEscaped(t *testing.T) {
	// Escaping is not idempotent; callers must escape exactly once.
	assert.Equal(t, "&amp;amp;", EscapeHTML("&amp;"))
}

func TestEscapeHTML_Unicode(t *testing.T) {
	assert.Equal(t, "Café &amp; Crème 2026", EscapeHTML("Café & Crème 2026"))
}
