// Package logging writes an audit trail of every layer decision to SQLite
// and reads it back for inspection.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
// Schema creates the decision_log table and its indexes.
const Schema = `CREATE TABLE IF NOT EXISTS decision_log (
	run_id        TEXT NOT NULL,
	context_id    TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	layer_id      TEXT NOT NULL,
	layer_name    TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	input         TEXT,
	reply         TEXT,
	output        TEXT,
	beliefs_json  TEXT NOT NULL,
	veto_reasons  TEXT,
	iterations    INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_decision_log_layer ON decision_log(layer_id);
CREATE INDEX IF NOT EXISTS idx_decision_log_created ON decision_log(created_at);`

// Open opens (or creates) the SQLite database at path and applies Schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open provenance db: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply provenance schema: %w", err)
	}
	return db, nil
}

// #endregion schema

// #region log-decision
// LogDecision writes one layer decision to the decision_log table.
func LogDecision(ctx context.Context, db *sql.DB, rec DecisionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	beliefs, err := json.Marshal(rec.Beliefs)
	if err != nil {
		return fmt.Errorf("marshal beliefs: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO decision_log (run_id, context_id, seq, layer_id, layer_name, decision, reason,
			input, reply, output, beliefs_json, veto_reasons, iterations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.ContextID,
		rec.Seq,
		rec.LayerID,
		nullIfEmpty(rec.LayerName),
		rec.Decision,
		nullIfEmpty(rec.Reason),
		nullIfEmpty(rec.Input),
		nullIfEmpty(rec.Reply),
		nullIfEmpty(rec.Output),
		string(beliefs),
		nullIfEmpty(strings.Join(rec.VetoReasons, ",")),
		rec.Iterations,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region recorder
// Recorder adapts a database handle to the pipeline's provenance hook.
type Recorder struct {
	db *sql.DB
}

// NewRecorder returns a Recorder writing to db.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record writes rec.
func (r *Recorder) Record(ctx context.Context, rec DecisionRecord) error {
	return LogDecision(ctx, r.db, rec)
}

// #endregion recorder

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
