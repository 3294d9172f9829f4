// Package ditabase is the top-level facade for the ditabase engine: open a
// .dtb file, run DSL commands against it and read tables back.
package ditabase

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/tuannm99/ditabase/internal/catalog"
	"github.com/tuannm99/ditabase/internal/engine"
	"github.com/tuannm99/ditabase/internal/render"
	"github.com/tuannm99/ditabase/internal/sql/executor"
)

const (
	DBExt     = ".dtb"
	ScriptExt = executor.ScriptExt
)

var ErrNotInitialized = errors.New("ditabase: not initialized, call Init first")

type options struct {
	fs     afero.Fs
	out    io.Writer
	format string
	logger *slog.Logger
}

type Option func(*options)

func WithFs(fs afero.Fs) Option { return func(o *options) { o.fs = fs } }

// WithOutput sets where PRINT statements write. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option { return func(o *options) { o.out = w } }

// WithFormat selects the PRINT layout: "text" (default) or "pretty".
func WithFormat(format string) Option { return func(o *options) { o.format = format } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// NormalizePath appends .dtb when p does not already end with it.
func NormalizePath(p string) string {
	if strings.HasSuffix(p, DBExt) {
		return p
	}
	return p + DBExt
}

// DB is a handle on one database file.
type DB struct {
	path string
	db   *engine.Database
	ex   *executor.Executor
}

// Open prepares a handle on path (normalised with NormalizePath) and loads it
// once so Table works before the first Exec. A missing or unreadable file
// starts empty.
func Open(path string, opts ...Option) (*DB, error) {
	o := options{fs: afero.NewOsFs(), out: os.Stdout, logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}

	out, err := render.New(o.format, o.out)
	if err != nil {
		return nil, err
	}

	db := engine.NewDatabase(engine.WithFs(o.fs), engine.WithLogger(o.logger))
	d := &DB{
		path: NormalizePath(path),
		db:   db,
		ex:   &executor.Executor{DB: db, Out: out, Fs: o.fs, Log: o.logger},
	}
	db.Load(d.path)
	return d, nil
}

func (d *DB) Path() string { return d.path }

// Exec runs one or more commands.
func (d *DB) Exec(cmd string) (*Result, error) {
	return d.ex.Exec(cmd, d.path)
}

// ExecFile runs a .ditabs script.
func (d *DB) ExecFile(name string) (*Result, error) {
	return d.ex.ExecFile(name, d.path)
}

// Table returns a snapshot of the named table.
func (d *DB) Table(name string) (*Table, error) {
	t, err := d.db.Table(name)
	if err != nil {
		return nil, err
	}
	return &Table{t: t}, nil
}

func (d *DB) Tables() []string { return d.db.Tables() }

// Table is a read-only snapshot; changing it does not touch the database.
type Table struct {
	t *catalog.Table
}

func (t *Table) Name() string { return t.t.Name }

func (t *Table) Columns() []Column { return t.t.Schema.Cols }

func (t *Table) Rows() []Row { return t.t.Rows }

// Items returns every column's values in row order.
func (t *Table) Items() map[string][]string {
	out := make(map[string][]string, t.t.Schema.NumCols())
	for _, c := range t.t.Schema.Cols {
		vals := make([]string, 0, len(t.t.Rows))
		for _, r := range t.t.Rows {
			vals = append(vals, r[c.Name])
		}
		out[c.Name] = vals
	}
	return out
}

// Item returns the first row whose column equals value.
func (t *Table) Item(column, value string) (Row, bool) {
	for _, r := range t.t.Rows {
		if v, ok := r[column]; ok && v == value {
			return r, true
		}
	}
	return nil, false
}

// FormatColumn renders c as "name (TYPE) [CONSTRAINTS]".
func FormatColumn(c Column) string { return c.String() }

// ---- process-wide default handle ----

var (
	mu      sync.Mutex
	current *DB
)

// Init opens path and makes it the default handle.
func Init(path string, opts ...Option) error {
	d, err := Open(path, opts...)
	if err != nil {
		return err
	}
	mu.Lock()
	current = d
	mu.Unlock()
	return nil
}

func defaultDB() (*DB, error) {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return nil, ErrNotInitialized
	}
	return current, nil
}

func Exec(cmd string) error {
	d, err := defaultDB()
	if err != nil {
		return err
	}
	_, err = d.Exec(cmd)
	return err
}

func ExecFile(name string) error {
	d, err := defaultDB()
	if err != nil {
		return err
	}
	_, err = d.ExecFile(name)
	return err
}

func GetTable(name string) (*Table, error) {
	d, err := defaultDB()
	if err != nil {
		return nil, err
	}
	return d.Table(name)
}

func GetRows(name string) ([]Row, error) {
	t, err := GetTable(name)
	if err != nil {
		return nil, err
	}
	return t.Rows(), nil
}

func GetColumns(name string) ([]Column, error) {
	t, err := GetTable(name)
	if err != nil {
		return nil, err
	}
	return t.Columns(), nil
}
