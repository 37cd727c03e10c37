// Package layer defines the policy layer configuration, partial overrides
// and the default catalog.
package layer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TerminalID is the id of the terminal stability layer. A generator failure
// on this layer aborts the whole run.
const TerminalID = "X"

var validate = validator.New()

// #region layer-config
// LayerConfig is one stage of the governance pipeline.
type LayerConfig struct {
	ID             string `json:"id" yaml:"id" validate:"required"`
	Name           string `json:"name" yaml:"name" validate:"required"`
	Description    string `json:"description" yaml:"description"`
	AgentLabel     string `json:"agent_label" yaml:"agent_label"`
	PromptTemplate string `json:"prompt_template" yaml:"prompt_template"`
}

// Terminal reports whether this is the terminal layer.
func (l LayerConfig) Terminal() bool {
	return l.ID == TerminalID
}

// DisplayName is the name used in prompts and refusal texts.
func (l LayerConfig) DisplayName() string {
	if strings.HasPrefix(l.Name, l.ID) {
		return l.Name
	}
	return l.ID + " " + l.Name
}

// Render substitutes {input} and {previous} in the prompt template.
func (l LayerConfig) Render(input, previous string) string {
	r := strings.NewReplacer("{input}", input, "{previous}", previous)
	return r.Replace(l.PromptTemplate)
}

// #endregion layer-config

// #region override
// Override is a partial LayerConfig. Nil fields keep the configured value.
type Override struct {
	Name           *string `json:"name,omitempty" yaml:"name,omitempty"`
	Description    *string `json:"description,omitempty" yaml:"description,omitempty"`
	AgentLabel     *string `json:"agent_label,omitempty" yaml:"agent_label,omitempty"`
	PromptTemplate *string `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty"`
}

// Apply returns l with every set field of o written over it.
func (o Override) Apply(l LayerConfig) LayerConfig {
	if o.Name != nil {
		l.Name = *o.Name
	}
	if o.Description != nil {
		l.Description = *o.Description
	}
	if o.AgentLabel != nil {
		l.AgentLabel = *o.AgentLabel
	}
	if o.PromptTemplate != nil {
		l.PromptTemplate = *o.PromptTemplate
	}
	return l
}

// Merge applies overrides by layer id. Order is preserved and layers without
// an override are returned unchanged. Overrides for unknown ids are ignored.
// The input slice is never modified.
func Merge(layers []LayerConfig, overrides map[string]Override) []LayerConfig {
	out := make([]LayerConfig, len(layers))
	for i, l := range layers {
		if o, ok := overrides[l.ID]; ok {
			l = o.Apply(l)
		}
		out[i] = l
	}
	return out
}

// #endregion override

// #region validate
// ErrNoLayers is returned when a pipeline is configured without layers.
var ErrNoLayers = errors.New("layer: no layers configured")

// Validate checks that the list is non-empty, every layer carries its
// required fields and no id repeats.
func Validate(layers []LayerConfig) error {
	if len(layers) == 0 {
		return ErrNoLayers
	}
	seen := make(map[string]int, len(layers))
	for i, l := range layers {
		if err := validate.Struct(l); err != nil {
			return fmt.Errorf("layer %d (%q): %w", i, l.ID, err)
		}
		if j, dup := seen[l.ID]; dup {
			return fmt.Errorf("layer %d: duplicate id %q (first at %d)", i, l.ID, j)
		}
		seen[l.ID] = i
	}
	return nil
}

// #endregion validate
