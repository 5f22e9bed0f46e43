// Package escape recognizes requests to abandon whatever workflow is in
// progress ("start over", "cancel", ...).
package escape

import "strings"

var phrases = []string{
	"start over",
	"new conversation",
	"exit",
	"stop workflow",
	"reset",
	"nevermind",
	"never mind",
	"change topic",
	"something else",
	"different question",
	"cancel",
	"quit",
	"break out",
}

// Detect reports whether text contains any escape phrase, ignoring case.
// Matching is by substring with no word boundaries: "please cancel that"
// escapes, and so does "I'm quite keen on cloud" because it contains "quit".
func Detect(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return false
	}
	for _, p := range phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// Phrases returns a copy of the escape phrase list.
func Phrases() []string {
	out := make([]string, len(phrases))
	copy(out, phrases)
	return out
}
