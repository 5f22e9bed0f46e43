package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_RoutingSystemPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(RoutingFile, "system")
	require.NoError(t, err)
	for _, route := range []string{
		"DIRECT_RESPONSE", "PROFILE_ANALYSIS", "PROFILE_GAP_ANALYSIS",
		"JOB_GAP_ANALYSIS", "RESUME_GENERATION", "GENERATE_REACHOUT",
	} {
		assert.Contains(t, prompt, route)
	}
	assert.Contains(t, prompt, "Respond with ONLY the workflow name.")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(RoutingFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_Responses(t *testing.T) {
	ClearCache()

	assert.Equal(t,
		"I encountered an error processing your request. Please try again.",
		MustGet(ResponsesFile, "step-error"))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{
			name:     "all placeholders",
			template: "Hello {{.Name}}, welcome to {{.Company}}!",
			data:     map[string]string{"Name": "Alice", "Company": "Acme Corp"},
			expected: "Hello Alice, welcome to Acme Corp!",
		},
		{
			name:     "missing key left as is",
			template: "Hello {{.Name}} {{.Other}}",
			data:     map[string]string{"Name": "Bob"},
			expected: "Hello Bob {{.Other}}",
		},
		{
			name:     "nil data",
			template: "static",
			expected: "static",
		},
		{
			name:     "value containing placeholder is not re-expanded",
			template: "{{.A}}",
			data:     map[string]string{"A": "{{.B}}", "B": "x"},
			expected: "{{.B}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.template, tt.data))
		})
	}
}

func TestRender(t *testing.T) {
	ClearCache()

	out, err := Render(RoutingFile, "user", map[string]string{
		"Message":        "hi",
		"History":        "",
		"UserContext":    "has_profile: false, resume_count: 0",
		"ActiveWorkflow": "none",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "User message: hi")
	assert.Contains(t, out, "Active workflow: none")
}

func TestList_Sorted(t *testing.T) {
	ClearCache()

	keys, err := List(GenerationFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"gap_analysis_job", "gap_analysis_profile", "resume_generation"}, keys)
}
