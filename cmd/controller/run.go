package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/layer-governor/internal/layer"
	"github.com/danielpatrickdp/layer-governor/internal/orchestrator"
)

var (
	runReasons   bool
	runContextID string
	runOverrides string

	runCmd = &cobra.Command{
		Use:   "run [text]",
		Short: "Govern one input and print the result as JSON",
		Long: `run sends a single input through the pipeline. The text is taken from
the arguments, or from stdin when no arguments are given. Layer overrides
are a JSON object keyed by layer id.`,
		RunE: runOnce,
	}
)

func init() {
	runCmd.Flags().BoolVar(&runReasons, "reasons", false, "ask every layer for a JSON reason")
	runCmd.Flags().StringVar(&runContextID, "context", "", "belief context id (default: a fresh context)")
	runCmd.Flags().StringVar(&runOverrides, "overrides", "", `layer overrides, e.g. '{"DA-13":{"name":"Warden"}}'`)
}

func runOnce(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(b))
	}
	if text == "" {
		return errors.New("no input text")
	}

	var overrides map[string]layer.Override
	if runOverrides != "" {
		if err := json.Unmarshal([]byte(runOverrides), &overrides); err != nil {
			return fmt.Errorf("parse --overrides: %w", err)
		}
	}

	p, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.orch.Run(cmd.Context(), orchestrator.GovernanceInput{
		Text:           text,
		IncludeReasons: runReasons,
		LayerOverrides: overrides,
		ContextID:      runContextID,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
