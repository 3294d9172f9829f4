package ditabase

import (
	"github.com/tuannm99/ditabase/internal/engine"
	"github.com/tuannm99/ditabase/internal/record"
	"github.com/tuannm99/ditabase/internal/sql/executor"
)

// Aliases so callers need not import internal packages.
type (
	Database = engine.Database
	Column   = record.Column
	Row      = record.Row
	Result   = executor.Result
)
