package executor

import "github.com/tuannm99/ditabase/internal/engine"

// Result is what one script run returns to the caller.
type Result struct {
	engine.Result

	// Statements is the number of statements parsed from the source.
	Statements int
}
