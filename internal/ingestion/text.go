// Package ingestion converts uploaded documents into bounded plain-text
// context for the evidence extractor.
package ingestion

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to text clamped by a character limit.
const TruncationMarker = "\n[TRUNCATED]"

var (
	multiSpace  = regexp.MustCompile(`\s+`)
	blankLines3 = regexp.MustCompile(`\n\n\n+`)
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLines3.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine trims trailing space and collapses runs of whitespace. Markdown
// headings and bullets keep their markers; indentation is preserved.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := len(line) - len(trimmed)
	content := multiSpace.ReplaceAllString(trimmed, " ")
	if indent > 0 {
		return strings.Repeat(" ", indent) + content
	}
	return content
}

// Truncate clamps text to limit runes, appending TruncationMarker when cut.
// A non-positive limit disables clamping.
func Truncate(text string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:limit]), " \n\t") + TruncationMarker, true
}

// RuneLen counts characters the way the budget does.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
