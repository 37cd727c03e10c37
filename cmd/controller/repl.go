package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/layer-governor/internal/orchestrator"
)

var (
	replReasons bool
	replTrace   bool

	replCmd = &cobra.Command{
		Use:   "repl",
		Short: "Read prompts from stdin and govern each one",
		Long: `repl keeps one belief context for the whole session, so risk and
coherence carry from turn to turn. Commands: :reset clears the session's
loops, :profile shows the active thresholds, quit exits.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
)

func init() {
	replCmd.Flags().BoolVar(&replReasons, "reasons", false, "ask every layer for a JSON reason")
	replCmd.Flags().BoolVar(&replTrace, "trace", true, "print the per-layer trace after each turn")
}

// #region repl
func runREPL(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	contextID := envOr("GOVERNOR_CONTEXT", "repl")
	enf := p.orch.Enforcer()

	fmt.Println("Layer Governor ready.")
	fmt.Printf("  Backend: %s | Layers: %d | Profile: %s\n", p.cfg.Backend, len(p.orch.Layers()), enf.Profile())
	fmt.Println("Type a prompt (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	turnNum := 0

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		prompt := strings.TrimSpace(scanner.Text())
		switch prompt {
		case "":
			continue
		case "quit", "exit":
			return nil
		case ":reset":
			fmt.Printf("evicted %d loop states\n", enf.Evict(contextID))
			continue
		case ":profile":
			th := enf.Thresholds()
			fmt.Printf("profile=%s coherence=%.2f reliability=%.2f risk=%.2f\n",
				enf.Profile(), th.Coherence, th.Reliability, th.HallucinationRisk)
			continue
		}

		turnNum++
		res, err := p.orch.Run(cmd.Context(), orchestrator.GovernanceInput{
			Text:           prompt,
			IncludeReasons: replReasons,
			ContextID:      contextID,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("[ORCH] turn failed", zap.Int("turn", turnNum), zap.Error(err))
			continue
		}

		fmt.Printf("\n%s\n\n", res.Output)
		if replTrace {
			printTrace(res.Trace)
		}
		fmt.Printf("[turn-%d] run=%s elapsed=%s\n", turnNum, res.RunID, res.Duration)
	}
	return scanner.Err()
}

// #endregion repl

func printTrace(entries []orchestrator.TraceEntry) {
	fmt.Printf("%-6s  %-22s  %-5s  %4s  %5s  %5s  %5s  %s\n",
		"Layer", "Name", "Veto", "Iter", "Coh", "Rel", "Risk", "Reason")
	for _, e := range entries {
		veto := ""
		if e.Vetoed {
			veto = "yes"
		}
		fmt.Printf("%-6s  %-22s  %-5s  %4d  %5.3f  %5.3f  %5.3f  %s\n",
			e.LayerID, truncate(e.LayerName, 22), veto, e.Iterations,
			e.Beliefs.Coherence, e.Beliefs.Reliability, e.Beliefs.HallucinationRisk,
			truncate(e.Reason, 60))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
