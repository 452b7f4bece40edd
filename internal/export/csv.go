package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

const emptyRecord = "\"\"\n"

func writeCSV(header []string, table [][]cell) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(header))
	for _, line := range table {
		for i, c := range line {
			record[i] = c.text
		}
		if len(record) == 1 && record[0] == "" {
			// csv.Writer renders this as a blank line, which readers skip
			w.Flush()
			buf.WriteString(emptyRecord)
			continue
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCSV reads an export back into its header and rows.
func ParseCSV(b []byte) ([]string, [][]string, error) {
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read csv: missing header")
	}
	return records[0], records[1:], nil
}
