package utils

import "testing"

func TestStripEntities(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a&#160;b", "a b"},
		{"a&nbsp;b", "a b"},
		{"a\u00a0b", "a b"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := StripEntities(tt.input); got != tt.want {
			t.Errorf("StripEntities(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  a   b  ", "a b"},
		{"a\n\tb", "a b"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeWhitespace(tt.input); got != tt.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanCell(t *testing.T) {
	if got := CleanCell(" Referencia:&#160;\n 123/2019 "); got != "Referencia: 123/2019" {
		t.Errorf("CleanCell = %q", got)
	}
}
