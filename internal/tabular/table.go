// Package tabular reads and writes the spreadsheet formats the batch
// pipeline consumes: CSV and XLSX. The pipeline itself only sees ordered
// headers and rows of cells.
package tabular

// Table is an ordered set of rows under a single header row. Cell values are
// raw strings exactly as they appeared in the file.
type Table struct {
	Headers []string
	Rows    [][]string
}

// New creates an empty table with the given header row.
func New(headers []string) *Table {
	return &Table{Headers: headers}
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(row []string) {
	t.Rows = append(t.Rows, padRow(row, len(t.Headers)))
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// RowMap returns row i as a column name to value mapping. Ordering lives in
// Headers; the map is a fresh copy the caller may modify.
func (t *Table) RowMap(i int) map[string]string {
	row := t.Rows[i]
	m := make(map[string]string, len(t.Headers))
	for idx, header := range t.Headers {
		if idx < len(row) {
			m[header] = row[idx]
		} else {
			m[header] = ""
		}
	}
	return m
}

// HasColumn reports whether the header row contains name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
