package ingestion

import (
	"context"
	"path/filepath"
	"strings"
)

// Kind is the shape of a conversion result
type Kind string

// Result kinds. A Result holds exactly one of them.
const (
	KindText    Kind = "text"
	KindTable   Kind = "table"
	KindFailure Kind = "failure"
)

// Result is the outcome of converting one document
type Result struct {
	Kind   Kind
	Text   string
	Table  *Table
	Reason string
}

// TextResult wraps extracted plain text.
func TextResult(text string) Result {
	return Result{Kind: KindText, Text: text}
}

// TableResult wraps a tabular preview.
func TableResult(table *Table) Result {
	return Result{Kind: KindTable, Table: table}
}

// FailureResult records why a document could not be converted.
func FailureResult(reason string) Result {
	return Result{Kind: KindFailure, Reason: reason}
}

// Content returns the text handed to the model for this result.
func (r Result) Content() string {
	switch r.Kind {
	case KindText:
		return r.Text
	case KindTable:
		return r.Table.Render()
	default:
		return ""
	}
}

// Converter turns one document type into text or a table preview
type Converter interface {
	Name() string
	// Extensions lists the lower-case file extensions the converter owns.
	Extensions() []string
	// AcceptsMIME reports whether a sniffed media type (without parameters)
	// belongs to the converter.
	AcceptsMIME(mediaType string) bool
	Convert(ctx context.Context, name string, data []byte) Result
}

func extOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Registry dispatches documents to the first converter that accepts them
type Registry struct {
	converters []Converter
}

// NewRegistry returns the closed converter set.
func NewRegistry(limits Limits) *Registry {
	return &Registry{
		converters: []Converter{
			&TextConverter{},
			&PDFConverter{},
			&DOCXConverter{},
			&HTMLConverter{},
			&SheetConverter{MaxRows: limits.MaxRows, MaxCols: limits.MaxCols},
		},
	}
}

// Find returns the converter for a document, or nil. A known extension
// always decides; the MIME type is consulted only when no converter owns the
// extension.
func (r *Registry) Find(name, mimeType string) Converter {
	if ext := extOf(name); ext != "" {
		for _, c := range r.converters {
			for _, e := range c.Extensions() {
				if e == ext {
					return c
				}
			}
		}
	}

	mediaType := mediaTypeOf(mimeType)
	if mediaType == "" {
		return nil
	}
	for _, c := range r.converters {
		if c.AcceptsMIME(mediaType) {
			return c
		}
	}
	return nil
}

// mediaTypeOf drops parameters such as "; charset=utf-8".
func mediaTypeOf(mimeType string) string {
	mediaType, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Convert converts one document. Unknown types become a Failure.
func (r *Registry) Convert(ctx context.Context, name, mimeType string, data []byte) Result {
	c := r.Find(name, mimeType)
	if c == nil {
		return FailureResult("unsupported file type")
	}
	return c.Convert(ctx, name, data)
}
