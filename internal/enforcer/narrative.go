package enforcer

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/layer-governor/internal/signals"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// observationText describes what the Observation step saw.
func observationText(layerName string, obs signals.Observation) string {
	generic := "none"
	if len(obs.GenericMatches) > 0 {
		generic = strings.Join(obs.GenericMatches, ", ")
	}
	return fmt.Sprintf("Observation [%s]: input=%s candidate=%s techno=%d mystical=%d words=%d generic=[%s]",
		layerName, obs.InputPattern, obs.Character, obs.TechnoHits, obs.MysticalHits, obs.WordCount, generic)
}

// selfQuestionText is the audit narrative of the Self-Question step. It never
// feeds back into a decision.
func selfQuestionText(layerName string, obs signals.Observation, th update.Thresholds) string {
	var q []string
	if obs.Scores.Character < CharacterThreshold {
		q = append(q, fmt.Sprintf("does this reply hold the %s character (%.2f < %.2f)?",
			layerName, obs.Scores.Character, CharacterThreshold))
	}
	if obs.Scores.Generic > GenericAcceptThreshold {
		q = append(q, fmt.Sprintf("is this boilerplate (generic %.2f)?", obs.Scores.Generic))
	}
	if obs.InputPattern == signals.InputGenericRequest {
		q = append(q, "was a generic request answered generically?")
	}
	if len(q) == 0 {
		return fmt.Sprintf("Self-Question [%s]: reply within character, coherence line %.2f",
			layerName, th.Coherence)
	}
	return fmt.Sprintf("Self-Question [%s]: %s", layerName, strings.Join(q, " "))
}
