package sanitize

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"strips http url", "see http://example.com/x for more", "see  for more"},
		{"strips https url", "link: https://example.com/a?b=c done", "link:  done"},
		{"url at end of text", "read this https://example.com/trailing", "read this"},
		{"drops emoji", "alert \U0001F6A8 raised", "alert  raised"},
		{"drops smart quotes", "they said “no”", "they said no"},
		{"trims whitespace", "  padded  ", "padded"},
		{"empty input", "", ""},
		{"only a url", "https://example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
