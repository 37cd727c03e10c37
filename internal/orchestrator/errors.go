package orchestrator

import (
	"fmt"
	"unicode/utf8"
)

// #region terminal-error

// TerminalLayerError is returned when the generator fails on the terminal
// layer. The run produces no output.
type TerminalLayerError struct {
	LayerID string
	Err     error
}

func (e *TerminalLayerError) Error() string {
	return fmt.Sprintf("terminal layer %s failed: %v", e.LayerID, e.Err)
}

func (e *TerminalLayerError) Unwrap() error { return e.Err }

// #endregion terminal-error

// #region parse-error

// ParseError is returned when neither the enforced text nor the raw reply of
// a layer parses as a structured {output, reason} object.
type ParseError struct {
	LayerID  string
	Accepted string // enforced text
	Original string // raw generator reply
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("layer %s: unparseable structured reply: %v (enforced=%q original=%q)",
		e.LayerID, e.Err, truncate(e.Accepted, 120), truncate(e.Original, 120))
}

func (e *ParseError) Unwrap() error { return e.Err }

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// #endregion parse-error
