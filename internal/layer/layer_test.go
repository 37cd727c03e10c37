package layer

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func strPtr(s string) *string { return &s }

func sampleLayers() []LayerConfig {
	return []LayerConfig{
		{ID: "A", Name: "Alpha", Description: "first", AgentLabel: "A-agent", PromptTemplate: "a: {input}"},
		{ID: "B", Name: "Beta", Description: "second", AgentLabel: "B-agent", PromptTemplate: "b: {previous}"},
		{ID: "X", Name: "Stability", Description: "last", AgentLabel: "X-agent", PromptTemplate: "x"},
	}
}

// #region merge-tests

func TestMerge(t *testing.T) {
	layers := sampleLayers()
	merged := Merge(layers, map[string]Override{
		"B":       {Description: strPtr("rewritten"), PromptTemplate: strPtr("")},
		"missing": {Name: strPtr("ghost")},
	})

	want := sampleLayers()
	want[1].Description = "rewritten"
	want[1].PromptTemplate = ""

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sampleLayers(), layers); diff != "" {
		t.Fatalf("merge modified its input (-want +got):\n%s", diff)
	}
}

func TestMerge_NoOverrides(t *testing.T) {
	layers := sampleLayers()
	if diff := cmp.Diff(layers, Merge(layers, nil)); diff != "" {
		t.Fatalf("nil overrides should be identity (-want +got):\n%s", diff)
	}
}

// #endregion merge-tests

// #region validate-tests

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		layers  []LayerConfig
		wantErr bool
	}{
		{"ok", sampleLayers(), false},
		{"empty", nil, true},
		{"duplicate", append(sampleLayers(), LayerConfig{ID: "A", Name: "Again"}), true},
		{"missing-id", []LayerConfig{{Name: "nameless"}}, true},
		{"missing-name", []LayerConfig{{ID: "Q"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.layers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if !errors.Is(Validate(nil), ErrNoLayers) {
		t.Fatal("empty list should return ErrNoLayers")
	}
}

// #endregion validate-tests

// #region catalog-tests

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	if len(cat) != 14 {
		t.Fatalf("expected 14 layers, got %d", len(cat))
	}
	if cat[0].ID != "DA-13" || cat[12].ID != "DA-1" {
		t.Fatalf("unexpected order: first=%s thirteenth=%s", cat[0].ID, cat[12].ID)
	}
	if !cat[len(cat)-1].Terminal() {
		t.Fatal("last layer should be terminal")
	}
	if err := Validate(cat); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	if strings.Contains(cat[0].PromptTemplate, "{previous}") {
		t.Fatal("first layer has no previous assessment")
	}
	if !strings.Contains(cat[1].PromptTemplate, "Previous assessment: {previous}") {
		t.Fatalf("DA-12 template missing previous line:\n%s", cat[1].PromptTemplate)
	}
}

func TestRenderAndDisplayName(t *testing.T) {
	l := LayerConfig{ID: "DA-8", Name: "Analyst", PromptTemplate: "in={input} prev={previous}"}
	if got := l.Render("req", "last"); got != "in=req prev=last" {
		t.Fatalf("render: got %q", got)
	}
	if got := l.DisplayName(); got != "DA-8 Analyst" {
		t.Fatalf("display name: got %q", got)
	}
	l.Name = "DA-8 Analyst"
	if got := l.DisplayName(); got != "DA-8 Analyst" {
		t.Fatalf("prefixed name should not repeat id, got %q", got)
	}
}

// #endregion catalog-tests
