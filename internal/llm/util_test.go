package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble before object",
			input:    "Here are the gaps:\n{\"items\": []}",
			expected: `{"items": []}`,
		},
		{
			name:     "preamble before array",
			input:    "Sections:\n[\"Summary\", \"Skills\"]",
			expected: `["Summary", "Skills"]`,
		},
		{
			name:     "trailing chatter",
			input:    "{\"items\": [1]}\n\nLet me know if you need more!",
			expected: `{"items": [1]}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"template": "Hello {name}!"}`,
			expected: `{"template": "Hello {name}!"}`,
		},
		{
			name:     "escaped quotes",
			input:    "Result: {\"message\": \"He said \\\"hi}\\\"\"}",
			expected: `{"message": "He said \"hi}\""}`,
		},
		{
			name:     "no JSON at all",
			input:    "not json",
			expected: "not json",
		},
		{
			name:     "unbalanced",
			input:    `{"key": "value"`,
			expected: `{"key": "value"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}
