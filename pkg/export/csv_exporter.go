package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Table is a rectangular export: one header row and any number of records of the same width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Append adds a record.
func (t *Table) Append(record ...string) {
	t.Rows = append(t.Rows, record)
}

// CSVExporter renders tables as RFC 4180 CSV.
type CSVExporter struct {
	comma rune
}

// NewCSVExporter builds a comma-separated exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{comma: ','}
}

// Render encodes the table into memory.
func (e *CSVExporter) Render(t Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := e.Write(buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the table to w. Every record must match the header width.
func (e *CSVExporter) Write(w io.Writer, t Table) error {
	if len(t.Header) == 0 {
		return fmt.Errorf("csv requires at least one header")
	}
	writer := csv.NewWriter(w)
	writer.Comma = e.comma
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, record := range t.Rows {
		if len(record) != len(t.Header) {
			return fmt.Errorf("csv row %d has %d fields, want %d", i, len(record), len(t.Header))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
