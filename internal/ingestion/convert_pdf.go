package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

const pdftotextTimeout = 30 * time.Second

// PDFConverter extracts text with the pdf library, falling back to the
// pdftotext binary when the library yields nothing.
type PDFConverter struct {
	// Binary overrides the pdftotext lookup. Empty means search PATH.
	Binary string
}

// Name returns the converter name
func (c *PDFConverter) Name() string { return "pdf" }

// Extensions returns .pdf
func (c *PDFConverter) Extensions() []string { return []string{".pdf"} }

// AcceptsMIME matches application/pdf
func (c *PDFConverter) AcceptsMIME(mediaType string) bool {
	return mediaType == "application/pdf"
}

// Convert extracts plain text from a PDF
func (c *PDFConverter) Convert(ctx context.Context, _ string, data []byte) Result {
	text, libErr := extractPDFText(data)
	if libErr == nil && strings.TrimSpace(text) != "" {
		return TextResult(CleanText(text))
	}
	if libErr == nil {
		libErr = fmt.Errorf("no text layer")
	}

	text, binErr := c.pdftotext(ctx, data)
	if binErr == nil && strings.TrimSpace(text) != "" {
		return TextResult(CleanText(text))
	}
	if binErr == nil {
		binErr = fmt.Errorf("no text extracted")
	}
	return FailureResult(fmt.Sprintf("no extractable text (pdf reader: %v; pdftotext: %v)", libErr, binErr))
}

func extractPDFText(data []byte) (text string, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

func (c *PDFConverter) pdftotext(ctx context.Context, data []byte) (string, error) {
	bin := c.Binary
	if bin == "" {
		path, err := exec.LookPath("pdftotext")
		if err != nil {
			return "", fmt.Errorf("binary not installed")
		}
		bin = path
	}

	tmp, err := os.CreateTemp("", "report-*.pdf")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, pdftotextTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return EnsureUTF8(stdout.Bytes()), nil
}
