package signals

import (
	"math"
	"testing"
)

// #region tokenize-tests

func TestTokenize(t *testing.T) {
	got := Tokenize("  Quantum, protocol!  bio-digital (kernel) -- ")
	want := []string{"quantum", "protocol", "bio-digital", "kernel"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

// #endregion tokenize-tests

// #region score-tests

func TestScore_CharacterDensity(t *testing.T) {
	s := NewScorer(false)

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "", 0},
		{"no-hits", "the cat sat on the mat", 0},
		{"all-hits", "quantum neural protocol", 1},
		{"half", "quantum kernel the system", 0.5},
		{"repeated-keyword", "matrix matrix plain plain", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.text).Character
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("character score: got %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestScore_GenericFraction(t *testing.T) {
	s := NewScorer(false)
	text := "please provide could you please i would like to please assist"
	got := s.Score(text).Generic
	want := 4.0 / float64(len(GenericPhrases))
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("generic score: got %.4f, want %.4f", got, want)
	}
}

func TestScore_MysticalOnlyWhenEnabled(t *testing.T) {
	text := "the oracle reads the sigil"

	standard := NewScorer(false).Score(text).Character
	if standard != 0 {
		t.Errorf("standard scorer should ignore mystical words, got %.4f", standard)
	}

	mystical := NewScorer(true).Score(text).Character
	if math.Abs(mystical-0.4) > 1e-9 {
		t.Errorf("mystical scorer: got %.4f, want 0.4", mystical)
	}
}

// #endregion score-tests

// #region observe-tests

func TestObserve_Classification(t *testing.T) {
	s := NewScorer(true)

	tests := []struct {
		name      string
		input     string
		candidate string
		wantInput InputPattern
		wantChar  CharacterClass
	}{
		{"generic-request", "Could you please summarize this", "a plain answer", InputGenericRequest, CharacterGeneric},
		{"help-me", "help me", "neural answer", InputGenericRequest, CharacterTechnical},
		{"direct", "Summarize the incident report", "the oracle speaks", InputDirectIntent, CharacterMystical},
		{"blended", "Deploy the patch", "quantum oracle", InputDirectIntent, CharacterBlended},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := s.Observe(tt.input, tt.candidate)
			if obs.InputPattern != tt.wantInput {
				t.Errorf("input pattern: got %s, want %s", obs.InputPattern, tt.wantInput)
			}
			if obs.Character != tt.wantChar {
				t.Errorf("character: got %s, want %s", obs.Character, tt.wantChar)
			}
		})
	}
}

func TestObserve_GenericMatchesListed(t *testing.T) {
	obs := NewScorer(false).Observe("x", "I would be happy to help you with your request")
	if len(obs.GenericMatches) != 1 || obs.GenericMatches[0] != "happy to help" {
		t.Fatalf("expected [happy to help], got %v", obs.GenericMatches)
	}
	if obs.WordCount != 10 {
		t.Errorf("expected 10 words, got %d", obs.WordCount)
	}
}

// #endregion observe-tests
