package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// #region run-decisions
// RunDecisions returns the decisions of one run in layer order.
func RunDecisions(ctx context.Context, db *sql.DB, runID string) ([]DecisionRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT run_id, context_id, seq, layer_id, COALESCE(layer_name, ''), decision, COALESCE(reason, ''),
			COALESCE(input, ''), COALESCE(reply, ''), COALESCE(output, ''), beliefs_json,
			COALESCE(veto_reasons, ''), iterations, created_at
		 FROM decision_log WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var (
			rec             DecisionRecord
			beliefs, vetoes string
			createdAt       string
		)
		if err := rows.Scan(&rec.RunID, &rec.ContextID, &rec.Seq, &rec.LayerID, &rec.LayerName,
			&rec.Decision, &rec.Reason, &rec.Input, &rec.Reply, &rec.Output, &beliefs,
			&vetoes, &rec.Iterations, &createdAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if err := json.Unmarshal([]byte(beliefs), &rec.Beliefs); err != nil {
			return nil, fmt.Errorf("decode beliefs: %w", err)
		}
		if vetoes != "" {
			rec.VetoReasons = strings.Split(vetoes, ",")
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion run-decisions

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx,
		`SELECT run_id, context_id, COUNT(*),
			SUM(CASE WHEN decision = 'veto' THEN 1 ELSE 0 END),
			SUM(CASE WHEN decision = 'error' THEN 1 ELSE 0 END),
			MIN(created_at)
		 FROM decision_log GROUP BY run_id, context_id
		 ORDER BY MIN(created_at) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var started string
		if err := rows.Scan(&s.RunID, &s.ContextID, &s.Layers, &s.Vetoes, &s.Errors, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, s)
	}
	return out, rows.Err()
}

// #endregion list-runs

// #region layer-stats
// LayerStats aggregates decisions per layer.
func LayerStats(ctx context.Context, db *sql.DB) ([]LayerStat, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT layer_id, COUNT(*),
			SUM(CASE WHEN decision = 'veto' THEN 1 ELSE 0 END),
			SUM(CASE WHEN decision = 'error' THEN 1 ELSE 0 END),
			AVG(json_extract(beliefs_json, '$.hallucination_risk')),
			MAX(created_at)
		 FROM decision_log GROUP BY layer_id ORDER BY layer_id`)
	if err != nil {
		return nil, fmt.Errorf("query layer stats: %w", err)
	}
	defer rows.Close()

	var out []LayerStat
	for rows.Next() {
		var s LayerStat
		var avg sql.NullFloat64
		var last string
		if err := rows.Scan(&s.LayerID, &s.Total, &s.Vetoes, &s.Errors, &avg, &last); err != nil {
			return nil, fmt.Errorf("scan layer stat: %w", err)
		}
		s.AvgRisk = avg.Float64
		s.LastSeen, _ = time.Parse(time.RFC3339Nano, last)
		out = append(out, s)
	}
	return out, rows.Err()
}

// #endregion layer-stats
