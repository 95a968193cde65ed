package themetext

import "testing"

func strVal(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		index   string
		song    string
		artist  string
		episode string
	}{
		{
			"Full form",
			`#1: "Soundtrack One" by Artist A (ep 1-12)`,
			"1", "Soundtrack One", "Artist A", "ep 1-12",
		},
		{
			"Name and artist only",
			`"Crossing Field" by LiSA`,
			"<nil>", "Crossing Field", "LiSA", "<nil>",
		},
		{
			"Index and name only",
			`#2: "unravel"`,
			"2", "unravel", "<nil>", "<nil>",
		},
		{
			"Name only",
			`"Tank!"`,
			"<nil>", "Tank!", "<nil>", "<nil>",
		},
		{
			"Name and episode without artist",
			`"Blue Bird" (eps 1-13)`,
			"<nil>", "Blue Bird", "<nil>", "eps 1-13",
		},
		{
			"Episode range with eps token",
			`#1: "Guren no Yumiya" by Linked Horizon (eps 1-13)`,
			"1", "Guren no Yumiya", "Linked Horizon", "eps 1-13",
		},
		{
			"Artist with inner parenthetical",
			`"Z no Chikai" by Momoiro Clover Z (eps 1-11)`,
			"<nil>", "Z no Chikai", "Momoiro Clover Z", "eps 1-11",
		},
		{
			"Non-episode parenthetical stays in artist",
			`"Flashback" by MIYAVI vs KenKen (Kagura Remix)`,
			"<nil>", "Flashback", "MIYAVI vs KenKen (Kagura Remix)", "<nil>",
		},
		{
			"Single episode",
			`"Last Theme" by Somebody (ep 24)`,
			"<nil>", "Last Theme", "Somebody", "ep 24",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.input)

			if got := strVal(parsed.Index); got != tt.index {
				t.Errorf("Parse(%q) index = %q, want %q", tt.input, got, tt.index)
			}
			if parsed.Name != tt.song {
				t.Errorf("Parse(%q) name = %q, want %q", tt.input, parsed.Name, tt.song)
			}
			if got := strVal(parsed.Artist); got != tt.artist {
				t.Errorf("Parse(%q) artist = %q, want %q", tt.input, got, tt.artist)
			}
			if got := strVal(parsed.Episode); got != tt.episode {
				t.Errorf("Parse(%q) episode = %q, want %q", tt.input, got, tt.episode)
			}
		})
	}
}

func TestParse_Degraded(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty string", ""},
		{"No quoted name", "Opening Theme by Artist"},
		{"Unclosed quote", `"Half a name by Artist`},
		{"Episode only", "(ep 1-12)"},
		{"Whitespace", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.input)

			if parsed.Name != UnknownField {
				t.Errorf("Parse(%q) name = %q, want %q", tt.input, parsed.Name, UnknownField)
			}
			if parsed.Artist == nil || *parsed.Artist != UnknownField {
				t.Errorf("Parse(%q) artist = %v, want %q", tt.input, parsed.Artist, UnknownField)
			}
			if parsed.Index != nil {
				t.Errorf("Parse(%q) index = %q, want nil", tt.input, *parsed.Index)
			}
			if parsed.Episode != nil {
				t.Errorf("Parse(%q) episode = %q, want nil", tt.input, *parsed.Episode)
			}
		})
	}
}
