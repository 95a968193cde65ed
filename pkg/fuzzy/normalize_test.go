package fuzzy

import "testing"

func TestNormalizer_SanitizeQuery(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Soundtrack One", "Soundtrack One"},
		{"Double quotes stripped", `"Crossing Field"`, "Crossing Field"},
		{"Backslashes stripped", `A\\B`, "AB"},
		{"Parentheses stripped", "Blue Bird (TV Size)", "Blue Bird TV Size"},
		{"Whitespace collapsed", "  two   words  ", "two words"},
		{"Only noise", `"()\"`, ""},
		{"Empty input", "", ""},
		{"Fullwidth compatibility form", "ＬｉＳＡ", "LiSA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.SanitizeQuery(tt.input); got != tt.expected {
				t.Errorf("SanitizeQuery(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
