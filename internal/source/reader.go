package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RawBatch is one fixed-size slice of undecoded input rows plus the header
// mapping needed to address fields by name. Batches are immutable once handed
// to a worker.
type RawBatch struct {
	Seq     int
	Columns map[string]int
	Rows    [][]string
}

// Field reads a named column from a row; absent columns and short rows read
// as empty, matching the tolerant typing of the source exports.
func (b *RawBatch) Field(row []string, name string) string {
	i, ok := b.Columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Reader yields fixed-size batches from a delimited stream. The header row is
// consumed at construction; malformed lines are skipped rather than failing
// the stream.
type Reader struct {
	cr        *csv.Reader
	columns   map[string]int
	chunkSize int
	seq       int
	done      bool
}

// NewReader wraps r, reading the header immediately.
func NewReader(r io.Reader, delimiter rune, chunkSize int) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	return &Reader{cr: cr, columns: columns, chunkSize: chunkSize}, nil
}

// Columns exposes the header mapping.
func (r *Reader) Columns() map[string]int { return r.columns }

// Next returns the next batch, or io.EOF when the input is exhausted. A batch
// shorter than the chunk size is returned as-is before EOF.
func (r *Reader) Next() (*RawBatch, error) {
	if r.done {
		return nil, io.EOF
	}

	rows := make([][]string, 0, r.chunkSize)
	for len(rows) < r.chunkSize {
		row, err := r.cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.done = true
				break
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// Bad line; skip it like the upstream readers do.
				continue
			}
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, io.EOF
	}

	batch := &RawBatch{Seq: r.seq, Columns: r.columns, Rows: rows}
	r.seq++
	return batch, nil
}
