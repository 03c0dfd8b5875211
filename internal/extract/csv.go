package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// decodeCSV maps every row after the header to a record keyed by the header
// cells. short rows are padded with "", cells past the header are dropped.
// quotes are strict: an unterminated quote fails the whole body.
func decodeCSV(body []byte) (any, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i, name := range header {
		header[i] = strings.Trim(strings.TrimSpace(name), `"`)
	}

	records := []any{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}

		record := make(map[string]any, len(header))
		for i, name := range header {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			record[name] = cell
		}
		records = append(records, record)
	}
	return records, nil
}
