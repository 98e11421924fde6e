package morph

import (
	"errors"
	"testing"
)

type failingInflector struct{}

func (failingInflector) Inflect(word, canonical string) (string, error) {
	return "", errors.New("inflection unavailable")
}

func TestInflectToMatch(t *testing.T) {
	tests := []struct {
		name      string
		inf       Inflector
		word      string
		canonical string
		want      string
	}{
		{
			name:      "identity keeps canonical",
			inf:       Identity{},
			word:      "captains",
			canonical: "captain",
			want:      "captain",
		},
		{
			name:      "uppercase source word capitalizes result",
			inf:       Identity{},
			word:      "Emperor",
			canonical: "emperor",
			want:      "Emperor",
		},
		{
			name:      "uppercase canonical capitalizes result",
			inf:       Identity{},
			word:      "guiliman",
			canonical: "Guilliman",
			want:      "Guilliman",
		},
		{
			name:      "lowercase on both sides stays lowercase",
			inf:       Identity{},
			word:      "ork",
			canonical: "ork",
			want:      "ork",
		},
		{
			name:      "failed inflection falls back to canonical",
			inf:       failingInflector{},
			word:      "words",
			canonical: "word",
			want:      "word",
		},
		{
			name:      "nil inflector falls back to canonical",
			inf:       nil,
			word:      "words",
			canonical: "word",
			want:      "word",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InflectToMatch(tt.inf, tt.word, tt.canonical); got != tt.want {
				t.Errorf("InflectToMatch(%q, %q) = %q, want %q", tt.word, tt.canonical, got, tt.want)
			}
		})
	}
}
