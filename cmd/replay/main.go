package main

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/danielpatrickdp/layer-governor/internal/logging"
	"github.com/danielpatrickdp/layer-governor/internal/replay"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the decision log database (DB mode)")
	runID := flag.String("run", "", "run id to replay (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	profile := flag.String("profile", "standard", "enforcement profile for DB mode: standard|mystical")
	export := flag.String("export", "", "write the replayed steps as a fixture to this path")
	flag.Parse()

	dbMode := *dbPath != "" && *runID != ""
	if dbMode == (*fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/governor.db --run id [--profile standard|mystical] [--export out.json]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var (
		f   *replay.Fixture
		err error
	)
	if dbMode {
		f, err = loadRun(*dbPath, *runID, *profile)
	} else {
		f, err = replay.LoadFixture(*fixturePath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if *export != "" {
		if err := replay.WriteFixture(*export, f); err != nil {
			fmt.Fprintf(os.Stderr, "export fixture: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "wrote %d steps to %s\n", len(f.Steps), *export)
	}

	os.Exit(runFixture(f))
}

// #endregion main

// #region db-extract

func loadRun(dbPath, runID, profile string) (*replay.Fixture, error) {
	if _, ok := update.ParseProfile(profile); !ok {
		return nil, fmt.Errorf("unknown profile %q", profile)
	}
	db, err := logging.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	recs, err := logging.RunDecisions(context.Background(), db, runID)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	desc := fmt.Sprintf("replay of run %s", runID)
	return replay.FixtureFromDecisions(desc, replay.FixtureConfig{Profile: profile}, recs), nil
}

// #endregion db-extract

// #region output

func runFixture(f *replay.Fixture) int {
	results := replay.Replay(f.ToSteps(), f.ToReplayConfig())

	expected := make(map[string]string, len(f.ExpectedResults))
	for _, e := range f.ExpectedResults {
		expected[e.StepID] = e.Action
	}
	code := printComparison(results, expected)
	printSummary(replay.Summarize(results))
	return code
}

// printComparison outputs a comparison table and returns the exit code.
// Steps without an expectation are shown but never counted as a divergence.
func printComparison(results []replay.ReplayResult, expected map[string]string) int {
	fmt.Printf("%-12s| %-8s| %-10s| %-10s| %-5s| %s\n", "Step", "Layer", "Expected", "Replayed", "Iter", "Match")
	fmt.Printf("%-12s+%-9s+%-11s+%-11s+%-6s+%s\n",
		"------------", "---------", "-----------", "-----------", "------", "------")

	matches, compared := 0, 0
	for _, r := range results {
		exp, ok := expected[r.StepID]
		match := "-"
		if ok {
			compared++
			match = "DIFF"
			if exp == r.Action {
				match = "OK"
				matches++
			}
		}
		fmt.Printf("%-12s| %-8s| %-10s| %-10s| %-5d| %s\n", r.StepID, r.LayerID, exp, r.Action, r.Iterations, match)
		if len(r.VetoReasons) > 0 {
			fmt.Printf("%-12s  veto: %s\n", "", strings.Join(r.VetoReasons, ", "))
		}
	}

	diverge := compared - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(results), matches, diverge)
	if diverge > 0 {
		return 1
	}
	return 0
}

func printSummary(s replay.ReplaySummary) {
	fmt.Printf("Emits: %d  Vetoes: %d\n", s.Emits, s.Vetoes)
	if len(s.Failures) > 0 {
		parts := make([]string, 0, len(s.Failures))
		for code, n := range s.Failures {
			parts = append(parts, fmt.Sprintf("%s=%d", code, n))
		}
		slices.Sort(parts)
		fmt.Printf("Failures: %s\n", strings.Join(parts, " "))
	}
	for _, id := range slices.Sorted(maps.Keys(s.FinalBeliefs)) {
		b := s.FinalBeliefs[id]
		fmt.Printf("  %-6s coh=%.4f rel=%.4f risk=%.4f\n", id, b.Coherence, b.Reliability, b.HallucinationRisk)
	}
}

// #endregion output
