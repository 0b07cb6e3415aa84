package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXConverter reads paragraph text from word/document.xml
type DOCXConverter struct{}

// Name returns the converter name
func (c *DOCXConverter) Name() string { return "docx" }

// Extensions returns .docx
func (c *DOCXConverter) Extensions() []string { return []string{".docx"} }

// AcceptsMIME matches the wordprocessingml MIME type
func (c *DOCXConverter) AcceptsMIME(mediaType string) bool {
	return mediaType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Convert extracts one line per paragraph
func (c *DOCXConverter) Convert(_ context.Context, _ string, data []byte) Result {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return FailureResult(fmt.Sprintf("not a valid docx archive: %v", err))
	}
	body, err := readZipFile(zr.File, "word/document.xml")
	if err != nil {
		return FailureResult(err.Error())
	}

	paragraphs := extractDocxParagraphs(body)
	text := CleanText(strings.Join(paragraphs, "\n"))
	if text == "" {
		return FailureResult("document has no text")
	}
	return TextResult(text)
}

func readZipFile(files []*zip.File, target string) ([]byte, error) {
	for _, f := range files {
		if f == nil || !strings.EqualFold(f.Name, target) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("file not found: %s", target)
}

// extractDocxParagraphs walks <w:p> elements collecting <w:t> runs. Tabs and
// breaks inside a paragraph become spaces.
func extractDocxParagraphs(body []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		inParagraph bool
		inText      bool
		text        strings.Builder
		out         []string
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			// io.EOF or a malformed tail: keep what was read
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				text.Reset()
			case "t":
				inText = inParagraph
			case "tab", "br":
				if inParagraph {
					text.WriteString(" ")
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inParagraph {
					out = append(out, strings.TrimSpace(text.String()))
				}
				inParagraph = false
				inText = false
				text.Reset()
			}
		}
	}
}
