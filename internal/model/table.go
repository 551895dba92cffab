package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ColumnKind tells how a column stores its cells
type ColumnKind int

const (
	// Categorical columns hold labels drawn from a per-column dictionary.
	Categorical ColumnKind = iota
	// Numeric columns hold float64 values, NaN marks a null cell.
	Numeric
)

func (k ColumnKind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Numeric:
		return "numeric"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseColumnKind is the inverse of ColumnKind.String
func ParseColumnKind(name string) (ColumnKind, error) {
	switch name {
	case "categorical":
		return Categorical, nil
	case "numeric":
		return Numeric, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", name)
	}
}

// MarshalText encodes the kind by name
func (k ColumnKind) MarshalText() ([]byte, error) {
	switch k {
	case Categorical, Numeric:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown column kind %d", int(k))
	}
}

// UnmarshalText decodes a kind written by MarshalText
func (k *ColumnKind) UnmarshalText(text []byte) error {
	kind, err := ParseColumnKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Column is a single named column of an observation table or grid.
//
// Categorical cells are stored as int32 codes into a dictionary of distinct
// labels; code -1 is null. The dictionary only grows.
type Column struct {
	Name string
	Kind ColumnKind

	categories []string
	index      map[string]int32
	codes      []int32

	floats []float64
}

// NewCategoricalColumn creates an empty categorical column
func NewCategoricalColumn(name string) *Column {
	return &Column{
		Name:  name,
		Kind:  Categorical,
		index: make(map[string]int32),
	}
}

// NewNumericColumn creates an empty numeric column
func NewNumericColumn(name string) *Column {
	return &Column{Name: name, Kind: Numeric}
}

// NewColumnLike creates an empty column with the same name and kind as c.
// Categorical dictionaries are not copied.
func NewColumnLike(c *Column) *Column {
	if c.Kind == Numeric {
		return NewNumericColumn(c.Name)
	}
	return NewCategoricalColumn(c.Name)
}

// Len returns the number of cells
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.floats)
	}
	return len(c.codes)
}

// AppendLabel appends a label. On a numeric column the label is parsed; a
// label that is not a number is stored as null.
func (c *Column) AppendLabel(label string) {
	if c.Kind == Numeric {
		f, err := strconv.ParseFloat(strings.TrimSpace(label), 64)
		if err != nil {
			f = math.NaN()
		}
		c.floats = append(c.floats, f)
		return
	}
	code, ok := c.index[label]
	if !ok {
		code = int32(len(c.categories))
		c.categories = append(c.categories, label)
		c.index[label] = code
	}
	c.codes = append(c.codes, code)
}

// AppendFloat appends a number. On a categorical column it is stored as its
// canonical label.
func (c *Column) AppendFloat(v float64) {
	if c.Kind == Categorical {
		if math.IsNaN(v) {
			c.AppendNull()
			return
		}
		c.AppendLabel(FormatFloat(v))
		return
	}
	c.floats = append(c.floats, v)
}

// AppendNull appends a null cell
func (c *Column) AppendNull() {
	if c.Kind == Numeric {
		c.floats = append(c.floats, math.NaN())
		return
	}
	c.codes = append(c.codes, -1)
}

// AppendFrom copies cell i of src onto the end of c, converting between
// kinds when they differ.
func (c *Column) AppendFrom(src *Column, i int) {
	if src.IsNull(i) {
		c.AppendNull()
		return
	}
	if src.Kind == Numeric {
		c.AppendFloat(src.floats[i])
		return
	}
	c.AppendLabel(src.categories[src.codes[i]])
}

// IsNull reports whether cell i is null
func (c *Column) IsNull(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.floats[i])
	}
	return c.codes[i] < 0
}

// Label returns cell i as text. Null cells are "".
func (c *Column) Label(i int) string {
	if c.IsNull(i) {
		return ""
	}
	if c.Kind == Numeric {
		return FormatFloat(c.floats[i])
	}
	return c.categories[c.codes[i]]
}

// Float returns cell i as a number. Categorical labels are parsed.
func (c *Column) Float(i int) (float64, bool) {
	if c.IsNull(i) {
		return 0, false
	}
	if c.Kind == Numeric {
		return c.floats[i], true
	}
	f, err := strconv.ParseFloat(c.categories[c.codes[i]], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Categories returns the dictionary of a categorical column in insertion order
func (c *Column) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// Unique returns the distinct non-null labels in first-seen order
func (c *Column) Unique() []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		l := c.Label(i)
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// Value returns cell i as a JSON-friendly value: float64, string or nil
func (c *Column) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	if c.Kind == Numeric {
		return c.floats[i]
	}
	return c.categories[c.codes[i]]
}

// FormatFloat renders a number in its shortest exact decimal form
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Table is an immutable set of equal-length named columns
type Table struct {
	columns []*Column
	byName  map[string]int
	rows    int
}

// NewTable assembles columns into a table. Column names must be unique and
// all columns must have the same length.
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(columns))}
	for i, c := range columns {
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column: %s", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %s has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
		t.byName[c.Name] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// MustTable is NewTable for tables built by code that already checked lengths
func MustTable(columns ...*Column) *Table {
	t, err := NewTable(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// EmptyTable is the table of a session with no uploaded file
func EmptyTable() *Table {
	return &Table{byName: map[string]int{}}
}

// NumRows returns the row count
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count
func (t *Table) NumColumns() int { return len(t.columns) }

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether the table has a column called name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Columns returns the columns in table order
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in table order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Take returns a new table holding the given rows, in the given order
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for j, c := range t.columns {
		nc := NewColumnLike(c)
		for _, i := range rows {
			nc.AppendFrom(c, i)
		}
		cols[j] = nc
	}
	out := MustTable(cols...)
	out.rows = len(rows)
	return out
}

// Slice returns rows [offset, offset+limit). A limit <= 0 means no limit.
func (t *Table) Slice(offset, limit int) *Table {
	if offset < 0 {
		offset = 0
	}
	end := t.rows
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	var rows []int
	for i := offset; i < end; i++ {
		rows = append(rows, i)
	}
	return t.Take(rows)
}

// Row returns row i as labels in column order
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.Label(i)
	}
	return out
}

// MarshalJSON encodes the table as {"columns": [...], "rows": [[...], ...]}
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := make([][]interface{}, t.rows)
	for i := 0; i < t.rows; i++ {
		row := make([]interface{}, len(t.columns))
		for j, c := range t.columns {
			row[j] = c.Value(i)
		}
		rows[i] = row
	}
	return json.Marshal(struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	}{t.ColumnNames(), rows})
}

// Concat stacks tables by column name. The result has the union of the
// columns in first-seen order; a column that is categorical in any input is
// categorical in the result. Cells a table does not have are null.
func Concat(tables ...*Table) *Table {
	var names []string
	kinds := make(map[string]ColumnKind)
	for _, t := range tables {
		for _, c := range t.columns {
			k, seen := kinds[c.Name]
			if !seen {
				names = append(names, c.Name)
				kinds[c.Name] = c.Kind
				continue
			}
			if k != c.Kind {
				kinds[c.Name] = Categorical
			}
		}
	}
	if len(names) == 0 {
		return EmptyTable()
	}

	cols := make([]*Column, len(names))
	for j, name := range names {
		if kinds[name] == Numeric {
			cols[j] = NewNumericColumn(name)
		} else {
			cols[j] = NewCategoricalColumn(name)
		}
	}
	for _, t := range tables {
		for j, name := range names {
			src, ok := t.Column(name)
			for i := 0; i < t.rows; i++ {
				if ok {
					cols[j].AppendFrom(src, i)
				} else {
					cols[j].AppendNull()
				}
			}
		}
	}
	return MustTable(cols...)
}
