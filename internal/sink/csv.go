package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Writer appends rows to a single output table. The header is written once at
// creation so the bulk-import collaborator always sees the fixed column order
// first, then batches stream in incrementally.
type Writer struct {
	f *os.File
	w *csv.Writer
}

// NewWriter creates (or truncates) the table file and writes its header.
func NewWriter(path string, columns []string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create table file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{f: f, w: w}, nil
}

func (w *Writer) Write(row []string) error {
	return w.w.Write(row)
}

func (w *Writer) WriteAll(rows [][]string) error {
	for _, row := range rows {
		if err := w.w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered rows and closes the underlying file.
func (w *Writer) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Table is a fully materialized output table: a header and string rows. The
// merge stage works on these rather than on typed records because its fill-gap
// semantics are per-column, whatever the table.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable returns an empty table with the given column order.
func NewTable(columns []string) *Table {
	t := &Table{Columns: columns}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Col returns the index of a named column, -1 when absent.
func (t *Table) Col(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Value reads a named column from a row, empty when the column is absent or
// the row is short.
func (t *Table) Value(row []string, name string) string {
	i := t.Col(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Append adds a row, padding or clipping it to the column count.
func (t *Table) Append(row []string) {
	switch {
	case len(row) < len(t.Columns):
		padded := make([]string, len(t.Columns))
		copy(padded, row)
		row = padded
	case len(row) > len(t.Columns):
		row = row[:len(t.Columns)]
	}
	t.Rows = append(t.Rows, row)
}

// LoadTable reads a whole CSV table into memory, header first.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: missing header", path)
	}

	t := NewTable(records[0])
	for _, row := range records[1:] {
		t.Append(row)
	}
	return t, nil
}

// Save writes the table to path, header first.
func (t *Table) Save(path string) error {
	w, err := NewWriter(path, t.Columns)
	if err != nil {
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
