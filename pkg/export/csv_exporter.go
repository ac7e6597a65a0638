package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Agenda is a tabular rendering of expanded calendar occurrences.
type Agenda struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// CSVExporter renders an Agenda into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the agenda.
func (e *CSVExporter) Render(agenda Agenda) ([]byte, error) {
	if len(agenda.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(agenda.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range agenda.Rows {
		record := make([]string, len(agenda.Headers))
		copy(record, row)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
