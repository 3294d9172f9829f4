package engine

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/tuannm99/ditabase/internal/catalog"
	"github.com/tuannm99/ditabase/internal/dberr"
	"github.com/tuannm99/ditabase/internal/record"
	"github.com/tuannm99/ditabase/internal/render"
	"github.com/tuannm99/ditabase/internal/sql/parser"
	"github.com/tuannm99/ditabase/internal/storage"
)

// Result counts what one Execute call did.
type Result struct {
	Applied  int // statements applied
	Created  int
	Dropped  int
	Inserted int
	Deleted  int
	Changed  int
}

type Option func(*Database)

// WithFs sets the filesystem used to load and save database files.
func WithFs(fs afero.Fs) Option {
	return func(db *Database) { db.fs = fs }
}

// WithIDGenerator replaces the generator used for auto UUID columns.
func WithIDGenerator(gen func() string) Option {
	return func(db *Database) { db.newID = gen }
}

func WithLogger(l *slog.Logger) Option {
	return func(db *Database) { db.log = l }
}

// Database applies statement batches to a database file. Each Execute loads
// the file, applies the batch in memory and rewrites the whole file.
//
// A Database is not safe for concurrent use.
type Database struct {
	fs    afero.Fs
	newID func() string
	log   *slog.Logger

	cat *catalog.Catalog // state after the last Load or Execute
}

// NewDatabase creates a new database handle without touching the filesystem.
func NewDatabase(opts ...Option) *Database {
	db := &Database{
		fs:    afero.NewOsFs(),
		newID: uuid.NewString,
		log:   slog.Default(),
		cat:   catalog.New(),
	}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Load replaces the in-memory state with the contents of path. A missing file
// gives an empty catalog; any other failure is logged and also gives an empty
// catalog.
func (db *Database) Load(path string) {
	c, err := storage.Load(db.fs, path)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotExist):
		c = catalog.New()
	default:
		db.log.Warn("creating new file", "path", path, "err", err)
		c = catalog.New()
	}
	db.cat = c
}

// Execute loads path, applies stmts in order and saves the result back to
// path. The first failing statement stops the batch: statements before it
// stay applied in memory but nothing is written.
func (db *Database) Execute(path string, stmts []parser.Statement, out render.Printer) (*Result, error) {
	if out == nil {
		out = render.Discard
	}
	db.Load(path)

	res := &Result{}
	for _, stmt := range stmts {
		if err := db.apply(stmt, out, res); err != nil {
			return res, dberr.AtLine(err, stmt.Pos())
		}
		res.Applied++
	}

	if err := storage.Save(db.fs, path, db.cat); err != nil {
		return res, err
	}
	return res, nil
}

// Table returns a copy of the named table as of the last Load or Execute.
func (db *Database) Table(name string) (*catalog.Table, error) {
	t, ok := db.cat.Get(name)
	if !ok {
		return nil, errNoTable(name)
	}
	return t.Clone(), nil
}

// Logger returns the logger the database reports to.
func (db *Database) Logger() *slog.Logger { return db.log }

// Tables lists table names in creation order.
func (db *Database) Tables() []string {
	return db.cat.Names()
}

func errNoTable(name string) error {
	return dberr.Schema("table %s does not exist", name)
}

func (db *Database) table(name string) (*catalog.Table, error) {
	t, ok := db.cat.Get(name)
	if !ok {
		return nil, errNoTable(name)
	}
	return t, nil
}

func (db *Database) apply(stmt parser.Statement, out render.Printer, res *Result) error {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return db.createTable(s, res)
	case *parser.InsertStmt:
		return db.insert(s, res)
	case *parser.DeleteStmt:
		return db.deleteRows(s, res)
	case *parser.DeleteTableStmt:
		return db.dropTable(s.TableName, res)
	case *parser.RemoveTableStmt:
		return db.dropTable(s.TableName, res)
	case *parser.PrintTableStmt:
		return db.printTable(s, out)
	case *parser.PrintItemStmt:
		return db.printItem(s, out)
	case *parser.ChangeValueStmt:
		return db.changeValue(s, res)
	default:
		return dberr.Syntax(stmt.Pos(), "unsupported statement %T", stmt)
	}
}

func (db *Database) createTable(s *parser.CreateTableStmt, res *Result) error {
	name := s.Table.Name
	if db.cat.Has(name) {
		if s.IfNotExists {
			return nil
		}
		return dberr.Schema("table %s already exists", name)
	}

	schema := record.Schema{Cols: append([]record.Column(nil), s.Table.Columns...)}
	if err := schema.Validate(); err != nil {
		return err
	}
	db.cat.Put(catalog.NewTable(name, schema.Clone()))
	res.Created++
	return nil
}

func (db *Database) dropTable(name string, res *Result) error {
	if !db.cat.Drop(name) {
		return errNoTable(name)
	}
	res.Dropped++
	return nil
}

func (db *Database) deleteRows(s *parser.DeleteStmt, res *Result) error {
	t, err := db.table(s.TableName)
	if err != nil {
		return err
	}
	conds := parser.Conds(s.Conditions)

	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if r.Matches(conds) {
			res.Deleted++
			continue
		}
		kept = append(kept, r)
	}
	t.Rows = kept
	return nil
}

func (db *Database) printTable(s *parser.PrintTableStmt, out render.Printer) error {
	t, err := db.table(s.TableName)
	if err != nil {
		return err
	}
	view := render.TableView{Name: t.Name, Columns: t.Schema.Names()}
	for _, r := range t.Rows {
		view.Rows = append(view.Rows, r.Values(t.Schema))
	}
	return out.PrintTable(view)
}

func (db *Database) printItem(s *parser.PrintItemStmt, out render.Printer) error {
	t, err := db.table(s.TableName)
	if err != nil {
		return err
	}
	conds := parser.Conds(s.Conditions)

	view := render.ItemView{Table: t.Name, Column: s.Column, Status: render.ItemNoMatch}
	for _, r := range t.Rows {
		if !r.Matches(conds) {
			continue
		}
		if v, ok := r[s.Column]; ok {
			view.Value = v
			view.Status = render.ItemFound
		} else {
			view.Status = render.ItemColumnMissing
		}
		break
	}
	return out.PrintItem(view)
}

func (db *Database) changeValue(s *parser.ChangeValueStmt, res *Result) error {
	t, err := db.table(s.TableName)
	if err != nil {
		return err
	}
	// values are only type-checked on insert
	var where []record.Cond
	if s.Where != nil {
		where = []record.Cond{{Column: s.Where.Column, Value: s.Where.Value}}
	}
	for _, r := range t.Rows {
		if !r.Matches(where) {
			continue
		}
		if v, ok := r[s.Column]; ok && v == s.OldValue {
			r[s.Column] = s.NewValue
			res.Changed++
		}
	}
	return nil
}
