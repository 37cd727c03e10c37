package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/danielpatrickdp/layer-governor/internal/logging"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the decision log database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show every layer decision of one run")
	layers := flag.Bool("layers", false, "show per-layer totals across all runs")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/governor.db [--last N] [--run id] [--layers] [--json]")
		os.Exit(2)
	}

	db, err := logging.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	switch {
	case *runID != "":
		err = runDetailMode(ctx, db, *runID, *jsonOut)
	case *layers:
		err = runLayerMode(ctx, db, *jsonOut)
	default:
		err = runListMode(ctx, db, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string `json:"run_id"`
	ContextID string `json:"context_id"`
	Layers    int    `json:"layers"`
	Vetoes    int    `json:"vetoes"`
	Errors    int    `json:"errors"`
	StartedAt string `json:"started_at"`
}

func runListMode(ctx context.Context, db *sql.DB, last int, jsonOut bool) error {
	runs, err := logging.ListRuns(ctx, db, last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// ListRuns is newest first; print chronologically.
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:     r.RunID,
			ContextID: r.ContextID,
			Layers:    r.Layers,
			Vetoes:    r.Vetoes,
			Errors:    r.Errors,
			StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-12s  %-12s  %6s  %6s  %6s  %s\n", "Run", "Context", "Layers", "Vetoes", "Errors", "Time")
	fmt.Printf("%-12s+-%-12s+-%6s+-%6s+-%6s+-%s\n",
		"------------", "------------", "------", "------", "------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-12s  %6d  %6d  %6d  %s\n",
			shortID(r.RunID), shortID(r.ContextID), r.Layers, r.Vetoes, r.Errors, r.StartedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(ctx context.Context, db *sql.DB, runID string, jsonOut bool) error {
	recs, err := logging.RunDecisions(ctx, db, runID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	if jsonOut {
		return printJSON(recs)
	}

	fmt.Printf("Run:     %s\n", recs[0].RunID)
	fmt.Printf("Context: %s\n", recs[0].ContextID)
	fmt.Printf("Started: %s\n\n", recs[0].CreatedAt.Format("2006-01-02T15:04:05Z"))

	fmt.Printf("%3s  %-6s  %-8s  %4s  %6s  %6s  %6s  %s\n",
		"#", "Layer", "Decision", "Iter", "Coh", "Rel", "Risk", "Reason")
	for _, r := range recs {
		fmt.Printf("%3d  %-6s  %-8s  %4d  %6.3f  %6.3f  %6.3f  %s\n",
			r.Seq, r.LayerID, r.Decision, r.Iterations,
			r.Beliefs.Coherence, r.Beliefs.Reliability, r.Beliefs.HallucinationRisk,
			oneLine(r.Reason, 60))
		if len(r.VetoReasons) > 0 {
			fmt.Printf("     veto: %s\n", strings.Join(r.VetoReasons, ", "))
		}
	}

	final := recs[len(recs)-1]
	fmt.Printf("\nFinal output:\n%s\n", final.Output)
	return nil
}

// #endregion detail-mode

// #region layer-mode

func runLayerMode(ctx context.Context, db *sql.DB, jsonOut bool) error {
	stats, err := logging.LayerStats(ctx, db)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(stats)
	}
	fmt.Printf("%-6s  %6s  %6s  %6s  %8s  %s\n", "Layer", "Total", "Vetoes", "Errors", "Avg Risk", "Last Seen")
	for _, s := range stats {
		fmt.Printf("%-6s  %6d  %6d  %6d  %8.4f  %s\n",
			s.LayerID, s.Total, s.Vetoes, s.Errors, s.AvgRisk, s.LastSeen.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion layer-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// #endregion output
