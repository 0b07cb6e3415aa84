// Package rendering turns an edited draft into the final email HTML.
package rendering

import (
	"errors"
	"fmt"
)

// Reasons a user template is replaced by the built-in one
var (
	ErrTemplateNotFound = errors.New("template file not found")
	ErrTemplateEmpty    = errors.New("template file is empty")
)

// TemplateError explains why the email template at Path was not used.
// Reason is one of the ErrTemplate values or a read failure.
type TemplateError struct {
	Path   string
	Reason error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("email template %s: %v", e.Path, e.Reason)
}

func (e *TemplateError) Unwrap() error { return e.Reason }

// RenderError is returned when no email can be produced from a template,
// for example when its source is blank.
type RenderError struct {
	Reason string
}

func (e *RenderError) Error() string { return "render email: " + e.Reason }
