package signals

import (
	"strings"
	"unicode"
)

// #region scorer

// Scorer computes lexical scores against fixed vocabularies. No model call.
type Scorer struct {
	techno   map[string]struct{}
	mystical map[string]struct{}
}

// NewScorer builds a scorer. The mystical vocabulary is only populated when
// mystical is true; otherwise mystical words score like any other word.
func NewScorer(mystical bool) *Scorer {
	s := &Scorer{
		techno:   toSet(TechnoKeywords),
		mystical: map[string]struct{}{},
	}
	if mystical {
		s.mystical = toSet(MysticalKeywords)
	}
	return s
}

// Mystical reports whether the mystical vocabulary is populated.
func (s *Scorer) Mystical() bool {
	return len(s.mystical) > 0
}

// #endregion scorer

// #region observe

// Observe classifies the input and the candidate and scores the candidate.
func (s *Scorer) Observe(input, candidate string) Observation {
	techno, mystical, words := s.keywordHits(candidate)
	generic, matches := genericMatches(candidate)

	return Observation{
		InputPattern:   ClassifyInput(input),
		Character:      classifyCharacter(techno, mystical),
		TechnoHits:     techno,
		MysticalHits:   mystical,
		WordCount:      words,
		GenericMatches: matches,
		Scores: Scores{
			Character: characterScore(techno+mystical, words),
			Generic:   generic,
		},
	}
}

// Score returns only the two numeric scores for text.
func (s *Scorer) Score(text string) Scores {
	techno, mystical, words := s.keywordHits(text)
	generic, _ := genericMatches(text)
	return Scores{
		Character: characterScore(techno+mystical, words),
		Generic:   generic,
	}
}

// #endregion observe

// #region classify

// ClassifyInput reports whether text reads as a generic polite request.
func ClassifyInput(text string) InputPattern {
	lower := strings.ToLower(text)
	for _, p := range requestPhrases {
		if strings.Contains(lower, p) {
			return InputGenericRequest
		}
	}
	return InputDirectIntent
}

func classifyCharacter(techno, mystical int) CharacterClass {
	switch {
	case techno > 0 && mystical > 0:
		return CharacterBlended
	case techno > 0:
		return CharacterTechnical
	case mystical > 0:
		return CharacterMystical
	default:
		return CharacterGeneric
	}
}

// #endregion classify

// #region helpers

// keywordHits counts every word occurrence found in either vocabulary.
func (s *Scorer) keywordHits(text string) (techno, mystical, words int) {
	tokens := Tokenize(text)
	for _, t := range tokens {
		if _, ok := s.techno[t]; ok {
			techno++
			continue
		}
		if _, ok := s.mystical[t]; ok {
			mystical++
		}
	}
	return techno, mystical, len(tokens)
}

// genericMatches returns the generic score and the phrases that matched.
func genericMatches(text string) (float64, []string) {
	lower := strings.ToLower(text)
	var found []string
	for _, p := range GenericPhrases {
		if strings.Contains(lower, p) {
			found = append(found, p)
		}
	}
	return float64(len(found)) / float64(len(GenericPhrases)), found
}

func characterScore(hits, words int) float64 {
	if words < 1 {
		words = 1
	}
	return float64(hits) / float64(words)
}

// Tokenize splits text into lowercase words with surrounding punctuation
// stripped. Hyphens inside a word are kept ("bio-digital").
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// #endregion helpers
