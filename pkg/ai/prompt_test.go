package ai

import (
	"strings"
	"testing"
)

func TestLimitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short enough", "Hej. Hur mår du?", 2, "Hej. Hur mår du?"},
		{"cut third", "Ett. Två! Tre? Fyra.", 2, "Ett. Två!"},
		{"no terminator", "bara text", 2, "bara text"},
		{"decimal not a break", "Klockan är 3.30 nu. Vi ses. Hej då.", 2, "Klockan är 3.30 nu. Vi ses."},
		{"trims", "  Hej.  ", 1, "Hej."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LimitSentences(tt.in, tt.n); got != tt.want {
				t.Errorf("LimitSentences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLanguageFallback(t *testing.T) {
	if !strings.Contains(SystemPrompt("SV"), "svenska") {
		t.Error("expected Swedish prompt")
	}
	if Acknowledgement("fi") != Acknowledgement("en") {
		t.Error("unknown language should fall back to English")
	}
}
