package schemas

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSchemas_ValidJSON(t *testing.T) {
	for _, name := range []string{Evidence, Draft} {
		t.Run(name, func(t *testing.T) {
			content, err := Load(name)
			require.NoError(t, err)

			var v map[string]any
			assert.NoError(t, json.Unmarshal([]byte(content), &v))
			assert.Equal(t, "object", v["type"])
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("nope.schema.json")
	require.Error(t, err)
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateJSONString_Valid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	assert.NoError(t, ValidateJSONString(schema, `{"name": "Acme"}`))
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	err := ValidateJSONString(schema, `{"name": 42}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "name", validationErr.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "subject", Message: "is required"},
		{Field: "key_highlights.0", Message: "Invalid type"},
	}}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "1. subject: is required")
	assert.Contains(t, msg, "2. key_highlights.0: Invalid type")
}

func TestDiagnose_DraftMatches(t *testing.T) {
	doc := map[string]any{
		"subject":          "April update",
		"monthly_overview": "Steady month.",
		"key_highlights":   []any{"a"},
		"image_captions":   []any{map[string]any{"file_name": "a.png", "suggested_section": "blockers"}},
		"dashthis_line":    "See dashboard.",
	}
	assert.Nil(t, Diagnose(Draft, doc))
}

func TestDiagnose_DraftProblems(t *testing.T) {
	doc := map[string]any{
		"monthly_overview": "x",
		"key_highlights":   []any{"a", 3},
		"image_captions":   []any{map[string]any{"suggested_section": "appendix"}},
		"dashthis_line":    "x",
	}

	diags := Diagnose(Draft, doc)
	require.NotEmpty(t, diags)
	joined := strings.Join(diags, "\n")
	assert.Contains(t, joined, "subject")
	assert.Contains(t, joined, "key_highlights.1")
	assert.Contains(t, joined, "file_name")
}

func TestDiagnose_EvidenceMissingSource(t *testing.T) {
	doc := map[string]any{
		"wins": []any{map[string]any{"claim": "Traffic up", "confidence": "High"}},
	}

	diags := Diagnose(Evidence, doc)
	require.NotEmpty(t, diags)
	assert.Contains(t, strings.Join(diags, "\n"), "source_ref")
}

func TestDiagnose_UnknownSchema(t *testing.T) {
	diags := Diagnose("nope.schema.json", map[string]any{})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "nope.schema.json")
}
