package table

import (
	"fmt"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
)

// Table is an ordered set of equally long, uniquely named columns.
// Row order is time order and is never changed except by FilterRows.
type Table struct {
	rows    int
	columns []*Column
	index   map[string]int
}

// New builds a table from columns of equal length.
func New(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	if len(columns) > 0 {
		t.rows = columns[0].Len()
	}
	for _, c := range columns {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// ColumnNames returns column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Columns returns the columns in table order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Floats returns the values of a numeric column.
func (t *Table) Floats(name string) ([]float64, bool) {
	c, ok := t.Column(name)
	if !ok || !c.kind.Numeric() {
		return nil, false
	}
	return c.floats, true
}

// AddColumn appends c. Adding a name that already exists is a configuration
// error; a length mismatch is a data format error.
func (t *Table) AddColumn(c *Column) error {
	if c == nil {
		return fmt.Errorf("table: nil column")
	}
	if _, exists := t.index[c.name]; exists {
		return ferrors.NewConfigurationError("column %q already exists", c.name).WithContext("column", c.name)
	}
	if len(t.columns) == 0 && t.rows == 0 {
		t.rows = c.Len()
	}
	if c.Len() != t.rows {
		return ferrors.NewDataFormatError(c.name, nil, "column has %d rows, table has %d", c.Len(), t.rows)
	}
	t.index[c.name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// ReplaceColumn swaps the existing column named c.Name() for c, keeping its position.
func (t *Table) ReplaceColumn(c *Column) error {
	i, ok := t.index[c.name]
	if !ok {
		return fmt.Errorf("table: column %q does not exist", c.name)
	}
	if c.Len() != t.rows {
		return ferrors.NewDataFormatError(c.name, nil, "column has %d rows, table has %d", c.Len(), t.rows)
	}
	t.columns[i] = c
	return nil
}

// Clone returns a shallow copy. Columns are shared; adding or replacing
// columns on the clone leaves the original untouched.
func (t *Table) Clone() *Table {
	cp := &Table{
		rows:    t.rows,
		columns: make([]*Column, len(t.columns)),
		index:   make(map[string]int, len(t.index)),
	}
	copy(cp.columns, t.columns)
	for k, v := range t.index {
		cp.index[k] = v
	}
	return cp
}

// Rename returns a copy with columns renamed through mapping. Names absent
// from the table are ignored. Renaming onto an existing column is a data
// format error.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	out := &Table{rows: t.rows, index: make(map[string]int, len(t.columns))}
	for _, c := range t.columns {
		name := c.name
		if mapped, ok := mapping[name]; ok && mapped != "" {
			name = mapped
		}
		if _, dup := out.index[name]; dup {
			return nil, ferrors.NewDataFormatError(name, nil, "renaming %q produces a duplicate column", c.name)
		}
		col := c
		if name != c.name {
			col = c.renamed(name)
		}
		out.index[name] = len(out.columns)
		out.columns = append(out.columns, col)
	}
	return out, nil
}

// Select returns a table holding only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := &Table{rows: t.rows, index: make(map[string]int, len(names))}
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, ferrors.NewDataFormatError(n, nil, "column not found")
		}
		if _, dup := out.index[n]; dup {
			continue
		}
		out.index[n] = len(out.columns)
		out.columns = append(out.columns, c)
	}
	return out, nil
}

// FilterRows returns a table holding the rows where keep[i] is true.
func (t *Table) FilterRows(keep []bool) *Table {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := &Table{rows: n, columns: make([]*Column, len(t.columns)), index: make(map[string]int, len(t.index))}
	for i, c := range t.columns {
		out.columns[i] = c.filter(keep, n)
		out.index[c.name] = i
	}
	return out
}

// Row returns row i as a name to value map; missing values are nil.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		row[c.name] = c.Value(i)
	}
	return row
}

// Equal reports whether both tables hold the same columns in the same order.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for i := range t.columns {
		if !t.columns[i].Equal(o.columns[i]) {
			return false
		}
	}
	return true
}
