package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/ditabase/internal/dberr"
	"github.com/tuannm99/ditabase/internal/render"
	"github.com/tuannm99/ditabase/internal/sql/parser"
	"github.com/tuannm99/ditabase/internal/storage"
)

const testPath = "/data/test.dtb"

func newTestDB(t *testing.T, opts ...Option) (*Database, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewDatabase(append([]Option{WithFs(fs)}, opts...)...), fs
}

func run(t *testing.T, db *Database, src string) (*Result, error) {
	t.Helper()
	stmts, err := parser.ParseSource(src)
	require.NoError(t, err)
	return db.Execute(testPath, stmts, render.Discard)
}

func mustRun(t *testing.T, db *Database, src string) *Result {
	t.Helper()
	res, err := run(t, db, src)
	require.NoError(t, err)
	return res
}

func TestExecute_CreateTableAndPersist(t *testing.T) {
	db, fs := newTestDB(t)

	res := mustRun(t, db, `NEW TABLE { UNIC MAIN UUID id, STR name } users;`)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Created)

	c, err := storage.Load(fs, testPath)
	require.NoError(t, err)
	tbl, ok := c.Get("users")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name"}, tbl.Schema.Names())
	assert.Empty(t, tbl.Rows)
}

func TestExecute_CreateTable_Exists(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { STR a } t; ADD ITEM { a="x" } TO TABLE t;`)

	_, err := run(t, db, `NEW TABLE { STR b } t;`)
	require.ErrorIs(t, err, dberr.ErrSchema)
	assert.Contains(t, err.Error(), "already exists")

	// IF EXISTS IS FALSE keeps the existing schema and rows
	res := mustRun(t, db, `NEW TABLE IF EXISTS IS FALSE { STR b } t;`)
	assert.Equal(t, 0, res.Created)

	tbl, err := db.Table("t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tbl.Schema.Names())
	assert.Len(t, tbl.Rows, 1)
}

func TestExecute_CreateTable_DuplicateColumn(t *testing.T) {
	db, _ := newTestDB(t)
	_, err := run(t, db, `NEW TABLE { STR a, INT16 a } t;`)
	require.ErrorIs(t, err, dberr.ErrSchema)
	assert.Contains(t, err.Error(), "duplicate column name a")
}

func TestInsert_UniquePrimaryOnce(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { UNIC MAIN STR code } t;`)
	mustRun(t, db, `ADD ITEM { code="A" } TO TABLE t;`)

	_, err := run(t, db, `ADD ITEM { code="A" } TO TABLE t;`)
	require.ErrorIs(t, err, dberr.ErrConstraint)
	assert.Contains(t, err.Error(), "UNIC MAIN constraint violation")

	mustRun(t, db, `ADD ITEM { code="B" } TO TABLE t;`)
}

func TestInsert_UniqueTwice(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { UNIC STR code } t;`)
	mustRun(t, db, `ADD ITEM { code="A" } TO TABLE t;`)
	mustRun(t, db, `ADD ITEM { code="A" } TO TABLE t;`)

	_, err := run(t, db, `ADD ITEM { code="A" } TO TABLE t;`)
	require.ErrorIs(t, err, dberr.ErrConstraint)
	assert.Contains(t, err.Error(), "UNIC constraint violation")
}

func TestInsert_PrimaryTenTimes(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { MAIN STR code } t;`)
	for i := 0; i < 10; i++ {
		mustRun(t, db, `ADD ITEM { code="A" } TO TABLE t;`)
	}

	_, err := run(t, db, `ADD ITEM { code="A" } TO TABLE t;`)
	require.ErrorIs(t, err, dberr.ErrConstraint)
	assert.Contains(t, err.Error(), "MAIN constraint violation")

	tbl, err := db.Table("t")
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 10)
}

func TestInsert_CountsUseStringEquality(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { UNIC MAIN INT32 n } t;`)
	mustRun(t, db, `ADD ITEM { n="1" } TO TABLE t;`)
	// "01" and "1" are different values
	mustRun(t, db, `ADD ITEM { n="01" } TO TABLE t;`)
}

func TestInsert_AutoUUID(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { UNIC MAIN UUID id, STR name } users;`)

	for i := 0; i < 5; i++ {
		mustRun(t, db, `ADD ITEM { id="placeholder", name="x" } TO TABLE users;`)
	}

	tbl, err := db.Table("users")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 5)

	seen := map[string]bool{}
	for _, r := range tbl.Rows {
		id := r["id"]
		assert.NotEqual(t, "placeholder", id)
		assert.Len(t, id, 36)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestInsert_IDGenerator(t *testing.T) {
	n := 0
	gen := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	db, _ := newTestDB(t, WithIDGenerator(gen))

	// UUID alone (no MAIN) is not generated
	mustRun(t, db, `NEW TABLE { MAIN UUID id, UUID ref } t;`)
	mustRun(t, db, `ADD ITEM { ref="r1" } TO TABLE t;`)

	tbl, err := db.Table("t")
	require.NoError(t, err)
	assert.Equal(t, "id-1", tbl.Rows[0]["id"])
	assert.Equal(t, "r1", tbl.Rows[0]["ref"])
}

func TestInsert_MissingValue(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { STR name, INT16 age } t;`)

	_, err := run(t, db, `ADD ITEM { name="Ann" } TO TABLE t;`)
	require.ErrorIs(t, err, dberr.ErrConstraint)
	assert.Equal(t, "value not provided for column age", err.Error())
}

func TestInsert_UnknownColumnIgnored(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { STR name } t;`)

	res := mustRun(t, db, `ADD ITEM { name="Ann", nick="A" } TO TABLE t;`)
	assert.Equal(t, 1, res.Inserted)

	tbl, err := db.Table("t")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Ann", tbl.Rows[0]["name"])
	_, ok := tbl.Rows[0]["nick"]
	assert.False(t, ok)

	_, err = run(t, db, `ADD ITEM { name="Ann" } TO TABLE nope;`)
	require.ErrorIs(t, err, dberr.ErrSchema)
	assert.Equal(t, "table nope does not exist", err.Error())
}

func TestInsert_BoolScenario(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { BOOL active } t;`)

	_, err := run(t, db, `ADD ITEM { active="2" } TO TABLE t;`)
	require.ErrorIs(t, err, dberr.ErrValidation)

	mustRun(t, db, `ADD ITEM { active="1" } TO TABLE t;`)
}

func TestInsert_Validation(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { INT16 a, CHAR c } t;`)

	_, err := run(t, db, `ADD ITEM { a="40000", c="x" } TO TABLE t;`)
	require.ErrorIs(t, err, dberr.ErrValidation)

	_, err = run(t, db, `ADD ITEM { a="1", c="xy" } TO TABLE t;`)
	require.ErrorIs(t, err, dberr.ErrValidation)

	mustRun(t, db, `ADD ITEM { a="-32768", c="é" } TO TABLE t;`)
}

func TestDelete_Conjunction(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `
NEW TABLE { STR name, STR city } t;
ADD ITEM { name="Ann", city="Rio" } TO TABLE t;
ADD ITEM { name="Ann", city="SP" } TO TABLE t;
ADD ITEM { name="Bob", city="Rio" } TO TABLE t;
`)

	res := mustRun(t, db, `DELETE ITEM { name="Ann", city="Rio" } FROM TABLE t;`)
	assert.Equal(t, 1, res.Deleted)

	// unknown column matches nothing
	res = mustRun(t, db, `DELETE ITEM { nick="Ann" } FROM TABLE t;`)
	assert.Equal(t, 0, res.Deleted)

	tbl, err := db.Table("t")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "SP", tbl.Rows[0]["city"])
	assert.Equal(t, "Bob", tbl.Rows[1]["name"])
}

func TestDropTable_DeleteAndRemoveAreEquivalent(t *testing.T) {
	for _, verb := range []string{"DELETE", "REMOVE"} {
		t.Run(verb, func(t *testing.T) {
			db, fs := newTestDB(t)
			mustRun(t, db, `NEW TABLE { STR a } t; NEW TABLE { STR b } u;`)

			res := mustRun(t, db, verb+` TABLE t;`)
			assert.Equal(t, 1, res.Dropped)
			assert.Equal(t, []string{"u"}, db.Tables())

			c, err := storage.Load(fs, testPath)
			require.NoError(t, err)
			assert.False(t, c.Has("t"))

			_, err = run(t, db, verb+` TABLE t;`)
			require.ErrorIs(t, err, dberr.ErrSchema)
			assert.Equal(t, "table t does not exist", err.Error())
		})
	}
}

func TestPrintItem_AnnScenario(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { UNIC MAIN UUID id, STR name } users; ADD ITEM { name="Ann" } TO TABLE users;`)
	mustRun(t, db, `ADD ITEM { name="Ann" } TO TABLE users;`)

	var buf bytes.Buffer
	stmts, err := parser.ParseSource(`PRINT ITEM name WHERE name="Ann" FROM TABLE users; PRINT ITEM id WHERE name="Ann" FROM TABLE users;`)
	require.NoError(t, err)
	_, err = db.Execute(testPath, stmts, &render.Text{W: &buf})
	require.NoError(t, err)

	tbl, err := db.Table("users")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	want := "\nname: Ann\n\n" + "\nid: " + tbl.Rows[0]["id"] + "\n\n"
	assert.Equal(t, want, buf.String())
}

type capture struct {
	tables []render.TableView
	items  []render.ItemView
}

func (c *capture) PrintTable(v render.TableView) error {
	c.tables = append(c.tables, v)
	return nil
}

func (c *capture) PrintItem(v render.ItemView) error {
	c.items = append(c.items, v)
	return nil
}

func TestPrint_Views(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { STR name, STR city } t; ADD ITEM { city="Rio", name="Ann" } TO TABLE t;`)

	out := &capture{}
	stmts, err := parser.ParseSource(`
PRINT TABLE t;
PRINT ITEM city WHERE name="Ann" FROM TABLE t;
PRINT ITEM nick WHERE name="Ann" FROM TABLE t;
PRINT ITEM city WHERE name="Zed" FROM TABLE t;
`)
	require.NoError(t, err)
	_, err = db.Execute(testPath, stmts, out)
	require.NoError(t, err)

	require.Len(t, out.tables, 1)
	assert.Equal(t, []string{"name", "city"}, out.tables[0].Columns)
	assert.Equal(t, [][]string{{"Ann", "Rio"}}, out.tables[0].Rows)

	require.Len(t, out.items, 3)
	assert.Equal(t, render.ItemFound, out.items[0].Status)
	assert.Equal(t, "Rio", out.items[0].Value)
	assert.Equal(t, render.ItemColumnMissing, out.items[1].Status)
	assert.Equal(t, render.ItemNoMatch, out.items[2].Status)

	_, err = run(t, db, `PRINT TABLE nope;`)
	require.ErrorIs(t, err, dberr.ErrSchema)
}

func TestChangeValue(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `
NEW TABLE { STR name, STR city } t;
ADD ITEM { name="Ann", city="Rio" } TO TABLE t;
ADD ITEM { name="Bob", city="Rio" } TO TABLE t;
ADD ITEM { name="Cid", city="SP" } TO TABLE t;
`)

	res := mustRun(t, db, `CHANGE VALUE OF city="Rio" TO "Recife" FROM TABLE t WHERE name="Bob";`)
	assert.Equal(t, 1, res.Changed)

	res = mustRun(t, db, `CHANGE VALUE OF city="Rio" TO "Natal" FROM TABLE t;`)
	assert.Equal(t, 1, res.Changed)

	tbl, err := db.Table("t")
	require.NoError(t, err)
	assert.Equal(t, "Natal", tbl.Rows[0]["city"])
	assert.Equal(t, "Recife", tbl.Rows[1]["city"])
	assert.Equal(t, "SP", tbl.Rows[2]["city"])
}

func TestChangeValue_NoTypeCheck(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { BOOL on } t; ADD ITEM { on="0" } TO TABLE t;`)

	res := mustRun(t, db, `CHANGE VALUE OF on="0" TO "2" FROM TABLE t;`)
	assert.Equal(t, 1, res.Changed)

	tbl, err := db.Table("t")
	require.NoError(t, err)
	assert.Equal(t, "2", tbl.Rows[0]["on"])
}

func TestChangeValue_UnknownColumnIsNoop(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { BOOL on } t; ADD ITEM { on="0" } TO TABLE t;`)

	res := mustRun(t, db, `CHANGE VALUE OF off="0" TO "1" FROM TABLE t;`)
	assert.Equal(t, 0, res.Changed)
	assert.Equal(t, 1, res.Applied)

	_, err := run(t, db, `CHANGE VALUE OF on="0" TO "1" FROM TABLE nope;`)
	require.ErrorIs(t, err, dberr.ErrSchema)
}

func TestExecute_PartialApplicationNotPersisted(t *testing.T) {
	db, fs := newTestDB(t)
	mustRun(t, db, `NEW TABLE { STR a } t;`)

	res, err := run(t, db, `
ADD ITEM { a="1" } TO TABLE t;
ADD ITEM { a="2" } TO TABLE nope;
ADD ITEM { a="3" } TO TABLE t;
`)
	require.ErrorIs(t, err, dberr.ErrSchema)
	assert.Equal(t, 1, res.Applied)

	var e *dberr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 3, e.Line)

	// first insert is visible in memory
	tbl, err := db.Table("t")
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)

	// but the file was not rewritten
	c, err := storage.Load(fs, testPath)
	require.NoError(t, err)
	onDisk, _ := c.Get("t")
	assert.Empty(t, onDisk.Rows)

	// the next batch starts from the file again
	mustRun(t, db, `PRINT TABLE t;`)
	tbl, err = db.Table("t")
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
}

func TestExecute_CorruptFileFallsBackToEmpty(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	db, fs := newTestDB(t, WithLogger(logger))

	require.NoError(t, fs.MkdirAll("/data", 0o755))
	require.NoError(t, afero.WriteFile(fs, testPath, []byte("NOPE...."), 0o644))

	mustRun(t, db, `NEW TABLE { STR a } t;`)
	assert.Contains(t, logs.String(), "creating new file")
	assert.Equal(t, []string{"t"}, db.Tables())

	// the corrupt file has been replaced
	c, err := storage.Load(fs, testPath)
	require.NoError(t, err)
	assert.True(t, c.Has("t"))
}

func TestExecute_HugeRowCountFallsBackToEmpty(t *testing.T) {
	var logs bytes.Buffer
	db, fs := newTestDB(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	// one table "t", no columns, 0xFFFFFFFF rows
	data := []byte("DTB1\x00\x00\x00\x01\x00\x01t\x00\x00\xff\xff\xff\xff")
	require.NoError(t, fs.MkdirAll("/data", 0o755))
	require.NoError(t, afero.WriteFile(fs, testPath, data, 0o644))

	mustRun(t, db, `NEW TABLE { STR a } u;`)
	assert.Contains(t, logs.String(), "creating new file")
	assert.Equal(t, []string{"u"}, db.Tables())
}

func TestExecute_MissingFileIsSilent(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	db, _ := newTestDB(t, WithLogger(logger))

	res := mustRun(t, db, ``)
	assert.Equal(t, 0, res.Applied)
	assert.Empty(t, logs.String())
	assert.Empty(t, db.Tables())
}

func TestTable_ReturnsCopy(t *testing.T) {
	db, _ := newTestDB(t)
	mustRun(t, db, `NEW TABLE { STR a } t; ADD ITEM { a="x" } TO TABLE t;`)

	tbl, err := db.Table("t")
	require.NoError(t, err)
	tbl.Rows[0]["a"] = "mutated"

	again, err := db.Table("t")
	require.NoError(t, err)
	assert.Equal(t, "x", again.Rows[0]["a"])

	_, err = db.Table("nope")
	require.ErrorIs(t, err, dberr.ErrSchema)
}
