package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrNoHeader = errors.New("data source has no header row")
	ErrNoRows   = errors.New("data source has no data rows")
)

// missingValues are the cell spellings treated as undefined, in addition
// to the empty string.
var missingValues = map[string]struct{}{
	"nan": {}, "-nan": {}, "null": {}, "none": {}, "na": {}, "n/a": {},
	"#n/a": {}, "<na>": {}, "nat": {},
}

// Table is a loaded tabular log. Rows are read-only once loaded and every
// row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	rows    [][]string
	index   map[string]int
}

// Load reads a CSV file with a header row.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data source: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// Read parses CSV from r. Short rows are padded with empty cells and long
// rows are truncated to the header width.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		t.Columns[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}

	width := len(header)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse line %d: %w", line, err)
		}

		row := make([]string, width)
		copy(row, record)
		t.rows = append(t.rows, row)
	}

	if len(t.rows) == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Cell returns the raw cell at (row, col). An out-of-range col yields "".
func (t *Table) Cell(row, col int) string {
	if col < 0 || col >= len(t.Columns) {
		return ""
	}
	return t.rows[row][col]
}

// Column returns a copy of the named column, or nil if it does not exist.
func (t *Table) Column(name string) []string {
	col := t.Index(name)
	if col < 0 {
		return nil
	}

	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[col]
	}
	return out
}

// IsMissing reports whether a cell holds an undefined value.
func IsMissing(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" {
		return true
	}
	_, ok := missingValues[strings.ToLower(s)]
	return ok
}
