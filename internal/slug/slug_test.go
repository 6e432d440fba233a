package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Basic normalization
		{"lowercase", "Spotify", "spotify"},
		{"spaces to hyphens", "Trade Me", "trade-me"},
		{"already a slug", "trade-me", "trade-me"},

		// Non-alphanumeric runs collapse to one hyphen
		{"apostrophe", "O'Reilly Media", "o-reilly-media"},
		{"dot and space run", "GOV.UK ltd", "gov-uk-ltd"},
		{"ampersand", "Marks & Spencer", "marks-spencer"},
		{"multiple spaces", "Big   Corp", "big-corp"},

		// Trimming
		{"surrounding whitespace", "  Stripe  ", "stripe"},
		{"leading punctuation", "@Slack", "slack"},
		{"trailing punctuation", "Meta!", "meta"},

		// Edge cases
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
		{"numbers kept", "Studio 54", "studio-54"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Make(tt.input); got != tt.expected {
				t.Errorf("Make(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain words", "Testing at Scale", "testing-at-scale"},
		{"apostrophe deleted", "Don't Repeat Yourself", "dont-repeat-yourself"},
		{"dots deleted", "GOV.UK Testing", "govuk-testing"},
		{"ampersand deleted", "Tips & Tricks", "tips-tricks"},
		{"hyphens kept", "End-to-End Testing", "end-to-end-testing"},
		{"underscore kept", "test_helpers explained", "test_helpers-explained"},
		{"mixed runs collapse", "CI -  CD pipelines", "ci-cd-pipelines"},
		{"surrounding noise", "  !Testing!  ", "testing"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.input); got != tt.expected {
				t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMakeIsIdempotent(t *testing.T) {
	for _, input := range []string{"Trade Me", "O'Reilly Media", "Studio 54"} {
		once := Make(input)
		if twice := Make(once); twice != once {
			t.Errorf("Make(Make(%q)) = %q, want %q", input, twice, once)
		}
	}
}
