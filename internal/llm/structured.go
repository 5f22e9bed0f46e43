package llm

import (
	"fmt"
	"strings"
)

// OutputSchema describes a JSON document the model is asked to produce.
type OutputSchema struct {
	Name        string        // Schema name (e.g., "WorkflowItems")
	Description string        // Preamble describing the generation task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the generated output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", ...
	Description string // Description for the LLM
	Required    bool
}

// BuildStructuredPrompt constructs a generation prompt from a schema and the
// facts the model should ground its answer in.
func BuildStructuredPrompt(schema OutputSchema, facts string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  %q: %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Base every item on the facts below; do not invent employers or credentials.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Facts:\n\"\"\"\n")
	sb.WriteString(facts)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// WorkflowItemsSchema is the output shape for generated workflow items
// (skill gaps or resume sections).
func WorkflowItemsSchema(task string) OutputSchema {
	return OutputSchema{
		Name:        "WorkflowItems",
		Description: task,
		Fields: []SchemaField{
			{
				Name:        "items",
				Type:        `[{"title": "string", "severity": "high|medium|low", "importance": "string", "current_level": "string", "target_level": "string", "detail": "string", "suggestions": ["string"]}]`,
				Description: "Between 1 and 5 items, most important first",
				Required:    true,
			},
		},
	}
}
