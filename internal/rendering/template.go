package rendering

import (
	_ "embed"
	"os"
	"strings"
)

//go:embed templates/monthly_email.html
var defaultTemplate string

// DefaultTemplate returns the built-in email template.
func DefaultTemplate() Template {
	return Template{Source: defaultTemplate, Fallback: true}
}

// Template is an HTML email template with {{TOKEN}} placeholders
type Template struct {
	Source   string
	Path     string // Empty for the built-in template
	Fallback bool   // True when the built-in template replaced the requested one
	Err      error  // Why the requested template could not be used
}

// LoadTemplate reads the template at path. An empty path, an unreadable file
// or an empty file yields the built-in template with Fallback set.
func LoadTemplate(path string) Template {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTemplate()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		tmpl := DefaultTemplate()
		if os.IsNotExist(err) {
			err = ErrTemplateNotFound
		}
		tmpl.Err = &TemplateError{Path: path, Reason: err}
		return tmpl
	}
	if strings.TrimSpace(string(content)) == "" {
		tmpl := DefaultTemplate()
		tmpl.Err = &TemplateError{Path: path, Reason: ErrTemplateEmpty}
		return tmpl
	}

	return Template{Source: string(content), Path: path}
}

// Missing returns the known tokens the template never references.
func (t Template) Missing() []Token {
	used := make(map[Token]bool)
	for _, tok := range Placeholders(t.Source) {
		used[tok] = true
	}
	var out []Token
	for _, tok := range Tokens() {
		if !used[tok] {
			out = append(out, tok)
		}
	}
	return out
}
