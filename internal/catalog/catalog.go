package catalog

// Catalog maps table names to tables and remembers creation order, which is
// the order tables are written to disk.
type Catalog struct {
	tables map[string]*Table
	order  []string
}

func New() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

func (c *Catalog) Get(name string) (*Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.tables[name]
	return ok
}

// Put adds t, replacing any table with the same name in place.
func (c *Catalog) Put(t *Table) {
	if _, ok := c.tables[t.Name]; !ok {
		c.order = append(c.order, t.Name)
	}
	c.tables[t.Name] = t
}

// Drop removes the named table and reports whether it existed.
func (c *Catalog) Drop(name string) bool {
	if _, ok := c.tables[name]; !ok {
		return false
	}
	delete(c.tables, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

func (c *Catalog) Len() int { return len(c.order) }

// Tables returns the tables in creation order.
func (c *Catalog) Tables() []*Table {
	out := make([]*Table, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.tables[n])
	}
	return out
}

func (c *Catalog) Clone() *Catalog {
	cp := New()
	for _, t := range c.Tables() {
		cp.Put(t.Clone())
	}
	return cp
}
