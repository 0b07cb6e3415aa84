package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelector lists elements that never carry report content.
const noiseSelector = "script, style, noscript, nav, footer, header, iframe, svg, .cookie-banner, .popup"

// HTMLConverter extracts visible body text from saved web pages and exports
type HTMLConverter struct{}

// Name returns the converter name
func (c *HTMLConverter) Name() string { return "html" }

// Extensions returns .html and .htm
func (c *HTMLConverter) Extensions() []string { return []string{".html", ".htm"} }

// AcceptsMIME matches text/html
func (c *HTMLConverter) AcceptsMIME(mediaType string) bool {
	return mediaType == "text/html"
}

// Convert returns the main text of the page
func (c *HTMLConverter) Convert(_ context.Context, _ string, data []byte) Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(EnsureUTF8(data))))
	if err != nil {
		return FailureResult(fmt.Sprintf("failed to parse HTML: %v", err))
	}
	doc.Find(noiseSelector).Remove()

	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	// Block elements end a line so cell and paragraph text stays separate.
	root.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, br").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	text := cleanWhitespace(root.Text())
	if text == "" {
		return FailureResult("page has no visible text")
	}
	return TextResult(text)
}

// cleanWhitespace trims every line and drops empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = multiSpace.ReplaceAllString(strings.TrimSpace(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
