package orchestrator

import (
	"strings"

	"github.com/danielpatrickdp/layer-governor/internal/layer"
)

const (
	instructionsReasons = `Respond with a single JSON object and nothing else:
{"output": "<the stabilized text>", "reason": "<one sentence on what you changed and why>"}`
	instructionsPlain = "Respond with only the stabilized text, no commentary, no preamble."
)

// BuildPrompt assembles the prompt envelope for one layer. original is the
// run's input text; current is the text the layer must process.
func BuildPrompt(l layer.LayerConfig, original, current string, includeReasons bool) string {
	var sb strings.Builder
	sb.WriteString("You are " + l.DisplayName())
	if l.AgentLabel != "" && l.AgentLabel != l.DisplayName() {
		sb.WriteString(" (" + l.AgentLabel + ")")
	}
	sb.WriteString(".\n")
	if l.Description != "" {
		sb.WriteString("Duty: " + l.Description + "\n")
	}
	if l.PromptTemplate != "" {
		sb.WriteString("\n" + l.Render(original, current) + "\n")
	}

	sb.WriteString("\nOperating instructions:\n")
	if includeReasons {
		sb.WriteString(instructionsReasons)
	} else {
		sb.WriteString(instructionsPlain)
	}

	sb.WriteString("\n\nText to process:\n")
	sb.WriteString(current)
	return sb.String()
}
