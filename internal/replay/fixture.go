package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/layer-governor/internal/enforcer"
	"github.com/danielpatrickdp/layer-governor/internal/logging"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                    `json:"description"`
	Config          FixtureConfig             `json:"config"`
	Steps           []FixtureStep             `json:"steps"`
	ExpectedResults []FixtureExpectedResult   `json:"expected_results,omitempty"`
	StartBeliefs    map[string]update.Beliefs `json:"start_beliefs,omitempty"`
}

// FixtureConfig mirrors enforcer.Config with JSON tags.
type FixtureConfig struct {
	Profile       string             `json:"profile"`
	Thresholds    *update.Thresholds `json:"thresholds,omitempty"`
	MaxIterations int                `json:"max_iterations,omitempty"`
}

// FixtureStep mirrors Step with JSON tags.
type FixtureStep struct {
	StepID    string `json:"step_id"`
	ContextID string `json:"context_id,omitempty"`
	LayerID   string `json:"layer_id"`
	LayerName string `json:"layer_name,omitempty"`
	Input     string `json:"input"`
	Reply     string `json:"reply"`
}

// FixtureExpectedResult captures the expected action per step.
type FixtureExpectedResult struct {
	StepID string `json:"step_id"`
	Action string `json:"action"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if _, ok := update.ParseProfile(f.Config.Profile); f.Config.Profile != "" && !ok {
		return nil, fmt.Errorf("parse fixture %s: unknown profile %q", path, f.Config.Profile)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToReplayConfig converts the fixture config to a domain ReplayConfig.
func (f *Fixture) ToReplayConfig() ReplayConfig {
	rc := DefaultReplayConfig()
	rc.Enforcer = enforcer.DefaultConfig()
	if f.Config.Profile != "" {
		rc.Enforcer.Profile = update.Profile(f.Config.Profile)
	}
	rc.Enforcer.Thresholds = f.Config.Thresholds
	if f.Config.MaxIterations > 0 {
		rc.Enforcer.MaxIterations = f.Config.MaxIterations
	}
	rc.StartBeliefs = f.StartBeliefs
	return rc
}

// ToSteps converts fixture steps to domain steps.
func (f *Fixture) ToSteps() []Step {
	steps := make([]Step, len(f.Steps))
	for i, s := range f.Steps {
		steps[i] = Step(s)
	}
	return steps
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromDecisions builds a fixture from a logged run. Error rows carry
// no reply and are skipped. Recorded actions become the expectations.
func FixtureFromDecisions(description string, cfg FixtureConfig, recs []logging.DecisionRecord) *Fixture {
	f := &Fixture{Description: description, Config: cfg}
	for _, r := range recs {
		if r.Decision == logging.DecisionError || r.Reply == "" {
			continue
		}
		id := fmt.Sprintf("%s-%02d", r.LayerID, r.Seq)
		f.Steps = append(f.Steps, FixtureStep{
			StepID:    id,
			ContextID: r.ContextID,
			LayerID:   r.LayerID,
			LayerName: r.LayerName,
			Input:     r.Input,
			Reply:     r.Reply,
		})
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{StepID: id, Action: r.Decision})
	}
	return f
}

// #endregion fixture-export
