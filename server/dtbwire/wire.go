package dtbwire

import "github.com/tuannm99/ditabase/internal/sql/executor"

const (
	OpExec   = "exec"
	OpTables = "tables"
)

// ExecuteRequest carries one batch of DSL source. An empty Op means OpExec.
type ExecuteRequest struct {
	ID     uint64 `json:"id"`
	Op     string `json:"op,omitempty"`
	Source string `json:"source,omitempty"`
}

// ExecuteResponse is the response for a request ID. Output holds whatever the
// batch printed, also when it failed part way.
type ExecuteResponse struct {
	ID     uint64           `json:"id"`
	Output string           `json:"output,omitempty"`
	Result *executor.Result `json:"result,omitempty"`
	Tables []string         `json:"tables,omitempty"`
	Error  string           `json:"error,omitempty"`
	Kind   string           `json:"kind,omitempty"`
}
