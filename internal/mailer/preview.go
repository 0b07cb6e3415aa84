package mailer

import (
	"encoding/base64"
	"regexp"
)

var cidPattern = regexp.MustCompile(`cid:([A-Za-z0-9._@-]+)`)

// PreviewHTML returns a copy of html with every cid: reference to a known
// image replaced by a base64 data URI. Unknown references are left alone.
func PreviewHTML(html string, images []InlineImage) string {
	uris := make(map[string]string, len(images))
	for _, img := range images {
		mimeType := img.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		uris[img.ContentID] = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	}
	return cidPattern.ReplaceAllStringFunc(html, func(match string) string {
		if uri, ok := uris[match[len("cid:"):]]; ok {
			return uri
		}
		return match
	})
}
