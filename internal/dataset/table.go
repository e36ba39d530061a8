package dataset

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

// maxCategoryLen caps the length of a token still treated as a category.
const maxCategoryLen = 64

// Options controls how a dataset file is read.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Number locale used for numeric inference and coercion.
	Number NumberFormat
	// XLSX sheet selection. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for loading a survey export.
func DefaultOptions() Options {
	return Options{MaxRows: 100000, SheetIndex: 1}
}

// Column is one named column of the table. Cells are trimmed raw strings,
// an empty cell is missing.
type Column struct {
	Name    string
	Kind    Kind
	Derived bool

	cells  []string
	values []float64 // set for derived numeric columns
}

// Cells returns a copy of the raw cells.
func (c *Column) Cells() []string {
	out := make([]string, len(c.cells))
	copy(out, c.cells)
	return out
}

// Len is the number of cells in the column.
func (c *Column) Len() int { return len(c.cells) }

// Table is an in-memory survey dataset with one row per respondent.
type Table struct {
	Name string
	// Total rows seen in the source, which may exceed Rows() when MaxRows applied.
	SourceRows int

	number  NumberFormat
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a table from a header and row records. Short rows are padded,
// long rows truncated to the header width.
func New(name string, header []string, records [][]string, nf NumberFormat) *Table {
	t := &Table{Name: name, number: nf, index: make(map[string]int, len(header))}
	t.rows = len(records)
	t.SourceRows = len(records)
	for j, h := range header {
		col := &Column{Name: strings.TrimSpace(h), cells: make([]string, len(records))}
		for i, rec := range records {
			if j < len(rec) {
				col.cells[i] = strings.TrimSpace(rec[j])
			}
		}
		col.Kind = inferKind(col.cells, nf)
		t.columns = append(t.columns, col)
		t.index[strings.ToLower(col.Name)] = j
	}
	return t
}

// Load reads a CSV, TSV or XLSX file into a Table, choosing the reader by extension.
func Load(path string, opt Options) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, opt)
	}
	return ReadCSV(path, opt)
}

// Rows is the number of respondents loaded.
func (t *Table) Rows() int { return t.rows }

// NumColumns is the number of columns, derived ones included.
func (t *Table) NumColumns() int { return len(t.columns) }

// Names returns column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in table order.
func (t *Table) Columns() []*Column { return t.columns }

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Column looks a column up by name, case-insensitively.
func (t *Table) Column(name string) (*Column, error) {
	idx, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := t.Names()
		sort.Strings(names)
		return nil, &MissingSchemaError{Column: name, Available: names}
	}
	return t.columns[idx], nil
}

// Strings returns a copy of a column's raw cells.
func (t *Table) Strings(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	return c.Cells(), nil
}

// Numeric coerces a column to numbers. Derived numeric columns are returned as stored.
func (t *Table) Numeric(name string) (Coercion, error) {
	c, err := t.Column(name)
	if err != nil {
		return Coercion{}, err
	}
	if c.values != nil {
		out := Coercion{Column: c.Name, Values: make([]float64, len(c.values))}
		copy(out.Values, c.values)
		for _, v := range c.values {
			if math.IsNaN(v) {
				out.Missing++
			}
		}
		return out, nil
	}
	return Coerce(c.Name, c.cells, t.number), nil
}

// SetNumeric adds or replaces a derived numeric column. NaN marks missing.
func (t *Table) SetNumeric(name string, values []float64) error {
	if len(values) != t.rows {
		return &LengthMismatchError{Column: name, Got: len(values), Want: t.rows}
	}
	col := &Column{Name: name, Kind: KindNumeric, Derived: true, cells: make([]string, len(values)), values: make([]float64, len(values))}
	copy(col.values, values)
	for i, v := range values {
		col.cells[i] = FormatNumber(v)
	}
	key := strings.ToLower(name)
	if idx, ok := t.index[key]; ok {
		t.columns[idx] = col
		return nil
	}
	t.index[key] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []string {
	if i < 0 || i >= t.rows {
		return nil
	}
	out := make([]string, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.cells[i]
	}
	return out
}

// Head returns up to n leading rows.
func (t *Table) Head(n int) [][]string {
	if n > t.rows {
		n = t.rows
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, t.Row(i))
	}
	return out
}

// NumberFormat returns the locale the table was loaded with.
func (t *Table) NumberFormat() NumberFormat { return t.number }

func (t *Table) String() string {
	return fmt.Sprintf("%s (%d rows x %d columns)", t.Name, t.rows, len(t.columns))
}

// inferKind picks the predominant parsed type of the non-blank cells.
func inferKind(cells []string, nf NumberFormat) Kind {
	var numCnt, dtCnt, txtCnt, catCnt int
	for _, v := range cells {
		if v == "" {
			continue
		}
		if _, ok := ParseNumber(v, nf); ok {
			numCnt++
			continue
		}
		if _, ok := parseTimeMaybe(v); ok {
			dtCnt++
			continue
		}
		txtCnt++
		if len(v) <= maxCategoryLen {
			catCnt++
		}
	}
	switch {
	case numCnt > 0 && numCnt >= dtCnt && numCnt >= txtCnt:
		return KindNumeric
	case dtCnt > 0 && dtCnt >= txtCnt:
		return KindDatetime
	case catCnt > 0:
		return KindCategorical
	case txtCnt > 0:
		return KindText
	default:
		return KindUnknown
	}
}
