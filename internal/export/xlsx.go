package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName    = "Zones"
	minColWidth  = 10.0
	maxColWidth  = 40.0
	charColWidth = 1.2
)

func writeXLSX(header []string, table [][]cell) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(header))
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
		widths[i] = len(h)
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for r, line := range table {
		row := make([]any, len(line))
		for i, c := range line {
			if c.number != nil {
				row[i] = *c.number
			} else {
				row[i] = c.text
			}
			if len(c.text) > widths[i] {
				widths[i] = len(c.text)
			}
		}
		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, start, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := styleSheet(f, widths, len(table)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// styleSheet bolds the header, sizes the columns and styles every body cell.
// Styled cells are kept on save, so rows whose values are all empty survive.
func styleSheet(f *excelize.File, widths []int, rows int) error {
	if len(widths) == 0 {
		return nil
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(widths), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if rows > 0 {
		body, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Vertical: "top"}})
		if err != nil {
			return fmt.Errorf("create body style: %w", err)
		}
		end, err := excelize.CoordinatesToCellName(len(widths), rows+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "A2", end, body); err != nil {
			return fmt.Errorf("style body: %w", err)
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(w) * charColWidth
		if width < minColWidth {
			width = minColWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

// ParseXLSX reads an export back into its header and rows. Rows are padded to
// the header width and stored values are returned unformatted.
func ParseXLSX(b []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	// GetRows drops trailing empty rows; walk the sheet instead
	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	defer func() { _ = rows.Close() }()

	var all [][]string
	for rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %s row %d: %w", sheetName, len(all)+1, err)
		}
		all = append(all, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("read sheet %s: missing header", sheetName)
	}
	header := all[0]
	body := make([][]string, 0, len(all)-1)
	for _, r := range all[1:] {
		for len(r) < len(header) {
			r = append(r, "")
		}
		body = append(body, r)
	}
	return header, body, nil
}
