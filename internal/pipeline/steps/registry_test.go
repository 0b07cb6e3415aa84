package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/metamendmarketing/reportbuilderv3/internal/db"
)

func doneSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(step string) bool { return set[step] }
}

func TestStepRegistry(t *testing.T) {
	require.Len(t, Order, len(StepRegistry))
	for _, stepName := range Order {
		def, ok := StepRegistry[stepName]
		require.True(t, ok, "Step %s should be in registry", stepName)
		assert.Equal(t, stepName, def.Name)
		assert.NotEmpty(t, def.Category)
	}
}

func TestStepRegistryCategories(t *testing.T) {
	categories := map[string][]string{
		dbpkg.CategoryIngestion: {IngestUploads},
		dbpkg.CategoryEvidence:  {ExtractEvidence},
		dbpkg.CategoryDrafting:  {GenerateDraft, NormalizeDraft},
		dbpkg.CategoryRendering: {RenderEmail, AssembleEML, ExportPDF},
	}

	for category, stepNames := range categories {
		for _, stepName := range stepNames {
			assert.Equal(t, category, StepRegistry[stepName].Category, "Step %s should be in category %s", stepName, category)
		}
	}
}

func TestOrderRespectsDependencies(t *testing.T) {
	pos := make(map[string]int)
	for i, name := range Order {
		pos[name] = i
	}
	for _, def := range StepRegistry {
		for _, dep := range def.Dependencies {
			assert.Less(t, pos[dep], pos[def.Name], "%s must run before %s", dep, def.Name)
		}
	}
}

func TestAtMostTwoGenerativeCalls(t *testing.T) {
	assert.Equal(t, 2, CountGenerative())
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{
		Step:                "test_step",
		MissingDependencies: []string{"dep1", "dep2"},
	}

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependencies")
	assert.Equal(t, "test_step", err.Step)
}

func TestValidateDependencies(t *testing.T) {
	assert.NoError(t, ValidateDependencies(IngestUploads, doneSet()))
	assert.NoError(t, ValidateDependencies(RenderEmail, doneSet(NormalizeDraft)))

	err := ValidateDependencies(AssembleEML, doneSet(NormalizeDraft))
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{RenderEmail}, depErr.MissingDependencies)

	assert.Error(t, ValidateDependencies("unknown", doneSet()))
}

func TestGetAvailableSteps(t *testing.T) {
	assert.Equal(t, []string{IngestUploads}, GetAvailableSteps(doneSet()))
	assert.Equal(t,
		[]string{AssembleEML, ExportPDF},
		GetAvailableSteps(doneSet(IngestUploads, ExtractEvidence, GenerateDraft, NormalizeDraft, RenderEmail)),
	)
}
