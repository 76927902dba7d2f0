package attendees

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyTable is returned when the upload has no header row.
var ErrEmptyTable = errors.New("attendees: table has no header row")

// ReadCSV reads a header row followed by data rows and returns each data row
// keyed by header name. Short rows are padded with empty values.
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("attendees: read header: %w", err)
	}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = strings.TrimSpace(name)
	}
	if len(header) == 1 && header[0] == "" {
		return nil, ErrEmptyTable
	}

	var rows []map[string]string
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("attendees: read row %d: %w", len(rows)+2, err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(fields) {
				row[name] = fields[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadRecords reads the export and extracts one Record per data row, in
// source order.
func ReadRecords(r io.Reader) ([]Record, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Extract(row))
	}
	return records, nil
}
