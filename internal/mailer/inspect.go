package mailer

import (
	"fmt"
	"io"
	"strings"

	"github.com/jhillyerd/enmime"
)

// Summary describes an .eml file read back from disk
type Summary struct {
	Subject     string   `json:"subject"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Date        string   `json:"date"`
	Draft       bool     `json:"draft"`
	HTMLParts   int      `json:"html_parts"`
	TextParts   int      `json:"text_parts"`
	InlineIDs   []string `json:"inline_ids"`
	Attachments int      `json:"attachments"`
	Errors      []string `json:"errors,omitempty"`
}

// Inspect parses an .eml and reports its structure. Text parts are counted
// from the MIME tree, not from enmime's derived plain text.
func Inspect(r io.Reader) (*Summary, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	s := &Summary{
		Subject:     env.GetHeader("Subject"),
		From:        env.GetHeader("From"),
		To:          env.GetHeader("To"),
		Date:        env.GetHeader("Date"),
		Draft:       env.GetHeader("X-Unsent") == "1",
		Attachments: len(env.Attachments),
	}
	for _, e := range env.Errors {
		s.Errors = append(s.Errors, e.Error())
	}

	walk(env.Root, func(p *enmime.Part) {
		switch {
		case p.FirstChild != nil:
			// container
		case strings.EqualFold(p.ContentType, "text/html"):
			s.HTMLParts++
		case strings.EqualFold(p.ContentType, "text/plain"):
			s.TextParts++
		case p.ContentID != "":
			s.InlineIDs = append(s.InlineIDs, strings.Trim(p.ContentID, "<>"))
		}
	})
	return s, nil
}

func walk(p *enmime.Part, fn func(*enmime.Part)) {
	for ; p != nil; p = p.NextSibling {
		fn(p)
		walk(p.FirstChild, fn)
	}
}
