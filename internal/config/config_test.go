package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/layer-governor/internal/layer"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governor.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(lookup(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendGRPC || cfg.CodecAddr != "localhost:50051" {
		t.Fatalf("unexpected backend defaults: %+v", cfg)
	}
	if cfg.ProfileValue() != update.ProfileStandard {
		t.Fatalf("expected standard profile, got %s", cfg.Profile)
	}
	if diff := cmp.Diff(layer.DefaultCatalog(), cfg.Layers); diff != "" {
		t.Fatalf("expected default catalog (-want +got):\n%s", diff)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
backend: grpc
codec_addr: file-host:1
profile: mystical
layer_timeout: 5s
thresholds:
  coherence: 0.5
  reliability: 0.5
  hallucination_risk: 0.3
layers:
  - id: A
    name: Alpha
    prompt_template: "a {input}"
  - id: X
    name: Stability
`)
	cfg, err := Load(lookup(map[string]string{
		"GOVERNOR_CONFIG": path,
		"CODEC_ADDR":      "env-host:2",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CodecAddr != "env-host:2" {
		t.Errorf("env should win over file, got %q", cfg.CodecAddr)
	}
	if cfg.LayerTimeout != 5*time.Second {
		t.Errorf("layer timeout: got %v", cfg.LayerTimeout)
	}
	if cfg.ProfileValue() != update.ProfileMystical {
		t.Errorf("profile: got %s", cfg.Profile)
	}
	want := &update.Thresholds{Coherence: 0.5, Reliability: 0.5, HallucinationRisk: 0.3}
	if diff := cmp.Diff(want, cfg.Thresholds); diff != "" {
		t.Errorf("thresholds (-want +got):\n%s", diff)
	}
	if len(cfg.Layers) != 2 || cfg.Layers[0].PromptTemplate != "a {input}" {
		t.Errorf("layers not loaded from file: %+v", cfg.Layers)
	}
}

func TestLoad_Errors(t *testing.T) {
	dup := writeFile(t, "layers:\n  - {id: A, name: a}\n  - {id: A, name: b}\n")
	negRisk := writeFile(t, "thresholds: {coherence: 0.6, reliability: 0.7, hallucination_risk: -0.1}\n")
	bigCoherence := writeFile(t, "thresholds: {coherence: 1.5, reliability: 0.7, hallucination_risk: 0.4}\n")

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad-backend", map[string]string{"GOVERNOR_BACKEND": "carrier-pigeon"}},
		{"bad-profile", map[string]string{"GOVERNOR_PROFILE": "chaotic"}},
		{"bad-timeout", map[string]string{"GOVERNOR_LAYER_TIMEOUT": "soon"}},
		{"bad-iterations", map[string]string{"GOVERNOR_MAX_ITERATIONS": "0"}},
		{"missing-file", map[string]string{"GOVERNOR_CONFIG": "/nonexistent/governor.yaml"}},
		{"duplicate-layers", map[string]string{"GOVERNOR_CONFIG": dup}},
		{"negative-risk-threshold", map[string]string{"GOVERNOR_CONFIG": negRisk}},
		{"coherence-threshold-above-one", map[string]string{"GOVERNOR_CONFIG": bigCoherence}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(lookup(tt.env))
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestLoad_OpenAICredential(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	_, err := Load(lookup(map[string]string{
		"GOVERNOR_BACKEND":    BackendOpenAI,
		"OPENAI_API_KEY_FILE": missing,
	}))
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	secret := filepath.Join(t.TempDir(), "key")
	os.WriteFile(secret, []byte("sk-from-file\n"), 0o600)
	cfg, err := Load(lookup(map[string]string{
		"GOVERNOR_BACKEND":    BackendOpenAI,
		"OPENAI_API_KEY_FILE": secret,
	}))
	if err != nil {
		t.Fatalf("load with secret file: %v", err)
	}
	if cfg.OpenAIKey != "sk-from-file" {
		t.Fatalf("expected trimmed key from file, got %q", cfg.OpenAIKey)
	}

	cfg, err = Load(lookup(map[string]string{"GOVERNOR_BACKEND": BackendOpenAI, "OPENAI_API_KEY": "sk-env"}))
	if err != nil || cfg.OpenAIKey != "sk-env" {
		t.Fatalf("expected env key, got %q (%v)", cfg.OpenAIKey, err)
	}
}
