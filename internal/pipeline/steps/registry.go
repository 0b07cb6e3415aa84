// Package steps defines the report pipeline stages and their dependencies.
package steps

import (
	"fmt"

	dbpkg "github.com/metamendmarketing/reportbuilderv3/internal/db"
)

// Stage names
const (
	IngestUploads   = "ingest_uploads"
	ExtractEvidence = "extract_evidence"
	GenerateDraft   = "generate_draft"
	NormalizeDraft  = "normalize_draft"
	RenderEmail     = "render_email"
	AssembleEML     = "assemble_eml"
	ExportPDF       = "export_pdf"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Generative   bool // Issues an outbound model call
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	IngestUploads: {
		Name:     IngestUploads,
		Category: dbpkg.CategoryIngestion,
	},
	ExtractEvidence: {
		Name:         ExtractEvidence,
		Category:     dbpkg.CategoryEvidence,
		Dependencies: []string{IngestUploads},
		Generative:   true,
	},
	GenerateDraft: {
		Name:         GenerateDraft,
		Category:     dbpkg.CategoryDrafting,
		Dependencies: []string{ExtractEvidence},
		Generative:   true,
	},
	NormalizeDraft: {
		Name:         NormalizeDraft,
		Category:     dbpkg.CategoryDrafting,
		Dependencies: []string{GenerateDraft},
	},
	RenderEmail: {
		Name:         RenderEmail,
		Category:     dbpkg.CategoryRendering,
		Dependencies: []string{NormalizeDraft},
	},
	AssembleEML: {
		Name:         AssembleEML,
		Category:     dbpkg.CategoryRendering,
		Dependencies: []string{RenderEmail},
	},
	ExportPDF: {
		Name:         ExportPDF,
		Category:     dbpkg.CategoryRendering,
		Dependencies: []string{RenderEmail},
	},
}

// Order lists the steps in execution order.
var Order = []string{
	IngestUploads,
	ExtractEvidence,
	GenerateDraft,
	NormalizeDraft,
	RenderEmail,
	AssembleEML,
	ExportPDF,
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every dependency of stepName is done.
func ValidateDependencies(stepName string, done func(step string) bool) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !done(dep) {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// GetAvailableSteps returns steps not yet done whose dependencies are met, in Order.
func GetAvailableSteps(done func(step string) bool) []string {
	var available []string
	for _, name := range Order {
		if done(name) {
			continue
		}
		if ValidateDependencies(name, done) == nil {
			available = append(available, name)
		}
	}
	return available
}

// CountGenerative returns how many steps issue model calls.
func CountGenerative() int {
	n := 0
	for _, def := range StepRegistry {
		if def.Generative {
			n++
		}
	}
	return n
}
