// Package llm - shape.go describes the JSON shape a prompt asks the model to return.
package llm

import (
	"fmt"
	"strings"
)

// ShapeField defines a single field in the expected output.
type ShapeField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "[]object"
	Description string // Description for the LLM
	Required    bool
}

// DescribeShape renders fields as a commented JSON skeleton for prompts.
func DescribeShape(fields []ShapeField) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for i, field := range fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  %q: %s%s", field.Name, typeHint, requiredHint))
		if i < len(fields)-1 {
			sb.WriteString(",")
		}
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}
