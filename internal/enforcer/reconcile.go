package enforcer

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/danielpatrickdp/layer-governor/internal/signals"
)

// #region layer-phrases

// layerPhrases are the fixed per-layer reconciliation prefixes.
var layerPhrases = map[string]string{
	"DA-13": "As the Sentinel, I verify truth constraints: ",
	"DA-12": "As the Chancellor, I align this with policy: ",
	"DA-11": "As the Custodian, I weigh the risk surface: ",
	"DA-10": "As the Architect, I map the system structure: ",
	"DA-9":  "As the Strategist, I trace the strategic vector: ",
	"DA-8":  "As the Analyst, I extract the signal: ",
	"DA-7":  "As the Coordinator, I synchronize the integration points: ",
	"DA-6":  "As the Optimizer, I tune the execution path: ",
	"DA-5":  "As the Validator, I check correctness constraints: ",
	"DA-4":  "As the Monitor, I register health telemetry: ",
	"DA-3":  "As the Adapter, I fold feedback into the loop: ",
	"DA-2":  "As the Integrator, I synthesize the layer outputs: ",
	"DA-1":  "As the Executor, I commit the actionable protocol: ",
	"X":     "As the Stability Core, I lock the final state: ",
}

// PhraseFor returns the reconciliation prefix for a layer. Layers outside
// the catalog get a prefix built from their display name.
func PhraseFor(layerID, layerName string) string {
	if p, ok := layerPhrases[layerID]; ok {
		return p
	}
	name := layerName
	if name == "" {
		name = layerID
	}
	return fmt.Sprintf("As %s, I hold the layer protocol: ", name)
}

// #endregion layer-phrases

// #region picker

// Picker selects the keyword appended to a reply that is still below the
// character threshold after prefixing.
type Picker func(text string, keywords []string) string

// HashPicker picks a keyword by FNV-1a hash of the text, so the same text
// always gets the same keyword.
func HashPicker(text string, keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	return keywords[h.Sum32()%uint32(len(keywords))]
}

// #endregion picker

// #region reconcile

// reconcile rewrites text toward the layer character. It returns the
// reconciled text, whether it changed and a short narrative.
func (e *Enforcer) reconcile(scorer *signals.Scorer, layerID, layerName, text string) (string, bool, string) {
	scores := scorer.Score(text)
	if scores.Character >= CharacterThreshold && scores.Generic <= GenericRewriteThreshold {
		return text, false, fmt.Sprintf("Reconciliation: accepted unchanged (character=%.2f generic=%.2f)",
			scores.Character, scores.Generic)
	}

	out := text
	var steps []string

	phrase := PhraseFor(layerID, layerName)
	if !strings.HasPrefix(out, phrase) {
		out = phrase + out
		steps = append(steps, "prefixed layer phrase")
	}

	if scorer.Score(out).Character < CharacterThreshold {
		kw := e.pick(out, signals.TechnoKeywords)
		if kw != "" {
			out = strings.TrimRight(out, " ") + " " + kw
			steps = append(steps, fmt.Sprintf("appended keyword %q", kw))
		}
	}

	after := scorer.Score(out)
	return out, out != text, fmt.Sprintf("Reconciliation: %s (character %.2f→%.2f generic %.2f→%.2f)",
		strings.Join(steps, ", "), scores.Character, after.Character, scores.Generic, after.Generic)
}

// meetsCharacter reports whether text is good enough to stop the loop early.
func meetsCharacter(s signals.Scores) bool {
	return s.Character >= CharacterThreshold && s.Generic <= GenericAcceptThreshold
}

// #endregion reconcile
