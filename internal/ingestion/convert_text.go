package ingestion

import "context"

// TextConverter handles plain text and markdown
type TextConverter struct{}

// Name returns the converter name
func (c *TextConverter) Name() string { return "text" }

// Extensions returns the text and markdown extensions
func (c *TextConverter) Extensions() []string {
	return []string{".txt", ".md", ".markdown", ".log"}
}

// AcceptsMIME matches text/plain and markdown
func (c *TextConverter) AcceptsMIME(mediaType string) bool {
	return mediaType == "text/plain" || mediaType == "text/markdown"
}

// Convert decodes the file to UTF-8 and cleans it
func (c *TextConverter) Convert(_ context.Context, _ string, data []byte) Result {
	text := CleanText(EnsureUTF8(data))
	if text == "" {
		return FailureResult("empty document")
	}
	return TextResult(text)
}
