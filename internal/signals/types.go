package signals

// #region input-pattern

// InputPattern classifies the text that entered a layer.
type InputPattern string

const (
	InputGenericRequest InputPattern = "generic_request"
	InputDirectIntent   InputPattern = "direct_intent"
)

// #endregion input-pattern

// #region character-class

// CharacterClass classifies a candidate reply by which vocabularies it hits.
type CharacterClass string

const (
	CharacterTechnical CharacterClass = "technical_only"
	CharacterMystical  CharacterClass = "mystical_only"
	CharacterBlended   CharacterClass = "blended"
	CharacterGeneric   CharacterClass = "generic"
)

// #endregion character-class

// #region scores

// Scores are the two lexical measures the enforcer reasons about.
type Scores struct {
	Character float64 // keyword hits / word count
	Generic   float64 // matched generic phrases / generic phrase list size
}

// #endregion scores

// #region observation

// Observation is the result of looking at one (input, candidate) pair.
type Observation struct {
	InputPattern   InputPattern
	Character      CharacterClass
	TechnoHits     int
	MysticalHits   int
	WordCount      int
	GenericMatches []string
	Scores         Scores
}

// #endregion observation
