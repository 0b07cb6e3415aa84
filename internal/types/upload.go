// Package types provides type definitions for structured data used throughout the report builder.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// screenshotExts lists the extensions treated as inline images.
var screenshotExts = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Upload is a user-supplied file
type Upload struct {
	Name     string `json:"name"`
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
}

// IsScreenshotName reports whether a file name has an image extension.
func IsScreenshotName(name string) bool {
	_, ok := screenshotExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsScreenshot reports whether the upload is classified as a screenshot.
func (u Upload) IsScreenshot() bool {
	return IsScreenshotName(u.Name)
}

// DetectMIME returns the upload's MIME type. Screenshots resolve by extension;
// everything else uses the caller-supplied type or content sniffing.
func (u Upload) DetectMIME() string {
	if mt, ok := screenshotExts[strings.ToLower(filepath.Ext(u.Name))]; ok {
		return mt
	}
	if u.MIMEType != "" {
		return u.MIMEType
	}
	return mimetype.Detect(u.Data).String()
}

// SplitUploads separates screenshots from documents, preserving upload order.
func SplitUploads(uploads []Upload) (screenshots, documents []Upload) {
	for _, u := range uploads {
		if u.IsScreenshot() {
			screenshots = append(screenshots, u)
		} else {
			documents = append(documents, u)
		}
	}
	return screenshots, documents
}

// ImageAsset is a screenshot ready for inline embedding
type ImageAsset struct {
	FileName  string      `json:"file_name"`
	Data      []byte      `json:"-"`
	MIMEType  string      `json:"mime_type"`
	Section   SectionName `json:"section"`
	Caption   string      `json:"caption,omitempty"`
	ContentID string      `json:"content_id"`
}

// AssignContentIDs sorts screenshots by file name and assigns img1..imgN.
// Non-image uploads are skipped. Every asset starts in DefaultImageSection.
func AssignContentIDs(uploads []Upload) []ImageAsset {
	shots := make([]Upload, 0, len(uploads))
	for _, u := range uploads {
		if u.IsScreenshot() {
			shots = append(shots, u)
		}
	}
	sort.SliceStable(shots, func(i, j int) bool {
		return shots[i].Name < shots[j].Name
	})

	assets := make([]ImageAsset, 0, len(shots))
	for i, u := range shots {
		assets = append(assets, ImageAsset{
			FileName:  u.Name,
			Data:      u.Data,
			MIMEType:  u.DetectMIME(),
			Section:   DefaultImageSection,
			ContentID: fmt.Sprintf("img%d", i+1),
		})
	}
	return assets
}
