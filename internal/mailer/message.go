// Package mailer assembles the rendered email into an Outlook-ready .eml draft.
package mailer

import (
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// DefaultFrom is used when neither the caller nor configuration supplies a sender.
const DefaultFrom = "seo-reports@example.com"

// Message is the logical email: a subject, one HTML body and its inline images
type Message struct {
	Subject string
	HTML    string
	Images  []InlineImage
}

// InlineImage is an image part addressed from the HTML by cid:ContentID
type InlineImage struct {
	ContentID string
	FileName  string
	MIMEType  string
	Data      []byte
}

// Options controls the envelope headers. Zero values pick defaults.
type Options struct {
	From      string
	To        string
	Date      time.Time
	Boundary  string
	MessageID string
}

// FromAssets converts screenshots into inline images, preserving order.
func FromAssets(assets []types.ImageAsset) []InlineImage {
	out := make([]InlineImage, 0, len(assets))
	for _, a := range assets {
		out = append(out, InlineImage{
			ContentID: a.ContentID,
			FileName:  a.FileName,
			MIMEType:  a.MIMEType,
			Data:      a.Data,
		})
	}
	return out
}

// Assemble serializes msg as multipart/related with exactly one text/html
// body part followed by one inline image part per image. The X-Unsent headers
// make mail clients open the file as an editable draft.
func Assemble(msg Message, opts Options) ([]byte, error) {
	from := strings.TrimSpace(opts.From)
	if from == "" {
		from = DefaultFrom
	}
	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}

	to := strings.TrimSpace(opts.To)
	if to != "" {
		list, err := mail.ParseAddressList(to)
		if err != nil {
			return nil, fmt.Errorf("invalid to address %q: %w", to, err)
		}
		to = formatAddressList(list)
	}

	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		subject = "SEO Monthly Update"
	}

	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}

	boundary := opts.Boundary
	if boundary == "" {
		boundary = "related_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	messageID := opts.MessageID
	if messageID == "" {
		messageID = fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(fromAddr.Address))
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	content.WriteString(fmt.Sprintf("From: %s\r\n", fromAddr.String()))
	content.WriteString(fmt.Sprintf("To: %s\r\n", to))
	content.WriteString(fmt.Sprintf("Date: %s\r\n", date.Format(time.RFC1123Z)))
	content.WriteString(fmt.Sprintf("Message-ID: %s\r\n", messageID))
	content.WriteString("X-Unsent: 1\r\n")
	content.WriteString("X-Unsent-Flag: 1\r\n")
	content.WriteString("MIME-Version: 1.0\r\n")
	content.WriteString(fmt.Sprintf("Content-Type: multipart/related; boundary=\"%s\"; type=\"text/html\"\r\n", boundary))
	content.WriteString("\r\n")

	// Exactly one body part. Never a text/plain alternative.
	content.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	content.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	content.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	content.WriteString("\r\n")
	qp := quotedprintable.NewWriter(&content)
	if _, err := qp.Write([]byte(msg.HTML)); err != nil {
		return nil, fmt.Errorf("failed to encode html body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode html body: %w", err)
	}
	content.WriteString("\r\n")

	for _, img := range msg.Images {
		if img.ContentID == "" {
			return nil, fmt.Errorf("inline image %q has no content id", img.FileName)
		}
		contentType := img.MIMEType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		filename := attachmentName(img)

		content.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		content.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", contentType, filename))
		content.WriteString("Content-Transfer-Encoding: base64\r\n")
		content.WriteString(fmt.Sprintf("Content-ID: <%s>\r\n", img.ContentID))
		content.WriteString(fmt.Sprintf("Content-Disposition: inline; filename=\"%s\"\r\n", filename))
		content.WriteString("\r\n")

		encoded := base64.StdEncoding.EncodeToString(img.Data)
		// Split into 76-character lines (RFC 2045)
		for i := 0; i < len(encoded); i += 76 {
			end := min(i+76, len(encoded))
			content.WriteString(encoded[i:end])
			content.WriteString("\r\n")
		}
	}

	content.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(content.String()), nil
}

// attachmentName returns a header-safe file name for an inline part.
func attachmentName(img InlineImage) string {
	name := filepath.Base(strings.TrimSpace(img.FileName))
	if name == "." || name == "/" || name == "" {
		exts, _ := mime.ExtensionsByType(img.MIMEType)
		ext := ".png"
		if len(exts) > 0 {
			ext = exts[0]
		}
		return img.ContentID + ext
	}
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(name)
	return mime.QEncoding.Encode("utf-8", name)
}

func formatAddressList(list []*mail.Address) string {
	parts := make([]string, 0, len(list))
	for _, a := range list {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}
