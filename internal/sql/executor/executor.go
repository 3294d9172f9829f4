package executor

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/tuannm99/ditabase/internal/engine"
	"github.com/tuannm99/ditabase/internal/render"
	"github.com/tuannm99/ditabase/internal/sql/parser"
)

// ScriptExt is the extension required for script files.
const ScriptExt = ".ditabs"

// executorDB is a small seam for unit-testing Executor without a real DB.
type executorDB interface {
	Execute(path string, stmts []parser.Statement, out render.Printer) (*engine.Result, error)
}

var _ executorDB = (*engine.Database)(nil)

// Executor runs DSL source against a database file.
type Executor struct {
	DB  executorDB
	Out render.Printer

	// Fs is where script files are read from.
	Fs afero.Fs

	// Log defaults to slog.Default when nil.
	Log *slog.Logger
}

func NewExecutor(db *engine.Database, out render.Printer) *Executor {
	return &Executor{DB: db, Out: out, Fs: afero.NewOsFs(), Log: db.Logger()}
}

func (e *Executor) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// Exec is the top-level entry: source text -> tokens -> statements -> engine.
func (e *Executor) Exec(source, path string) (*Result, error) {
	stmts, err := parser.ParseSource(source)
	if err != nil {
		return nil, err
	}

	out := e.Out
	if out == nil {
		out = render.Discard
	}

	res, err := e.DB.Execute(path, stmts, out)
	r := &Result{Statements: len(stmts)}
	if res != nil {
		r.Result = *res
	}
	if err != nil {
		e.logger().Debug("executor: batch failed", "path", path, "applied", r.Applied, "err", err)
		return r, err
	}
	return r, nil
}

// ExecReader reads the whole of r and executes it.
func (e *Executor) ExecReader(r io.Reader, path string) (*Result, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("executor: read source: %w", err)
	}
	return e.Exec(string(src), path)
}

// ExecFile runs the script file name against path. Script files must end in
// .ditabs.
func (e *Executor) ExecFile(name, path string) (*Result, error) {
	fs := e.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	ok, err := afero.Exists(fs, name)
	if err != nil {
		return nil, fmt.Errorf("executor: stat %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("executor: file %s not found", name)
	}
	if !strings.HasSuffix(name, ScriptExt) {
		return nil, fmt.Errorf("executor: file must have %s extension", ScriptExt)
	}

	src, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("executor: read %s: %w", name, err)
	}
	return e.Exec(string(src), path)
}
