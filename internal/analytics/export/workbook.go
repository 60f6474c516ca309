package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of workbook downloads.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const headerFill = "4A90E2"

// Column describes one sheet column.
type Column struct {
	Header string
	Width  float64
}

// Percent renders as a percentage cell. The value is already scaled to 100.
type Percent float64

// Sheet is a table written below an optional title. Decimal cells get the
// currency format; Highlight lists data rows (0-based) styled like the header.
type Sheet struct {
	Name      string
	Title     string
	Columns   []Column
	Rows      [][]any
	Highlight []int
}

// Workbook accumulates sheets into an xlsx file.
type Workbook struct {
	file     *excelize.File
	header   int
	currency int
	percent  int
	sheets   []string
}

// NewWorkbook prepares an empty workbook and its shared styles.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thin,
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: header style: %w", err)
	}
	currencyFmt := `"$"#,##0.00`
	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: currency style: %w", err)
	}
	percentFmt := `0.0"%"`
	percent, err := f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: percent style: %w", err)
	}
	return &Workbook{file: f, header: header, currency: currency, percent: percent}, nil
}

// SheetNames lists the sheets added so far in order.
func (w *Workbook) SheetNames() []string {
	return append([]string(nil), w.sheets...)
}

// AddSheet writes s as a new sheet. The first sheet replaces the default one.
func (w *Workbook) AddSheet(s Sheet) error {
	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName(w.file.GetSheetName(0), s.Name); err != nil {
			return fmt.Errorf("export: rename sheet %q: %w", s.Name, err)
		}
	} else if _, err := w.file.NewSheet(s.Name); err != nil {
		return fmt.Errorf("export: new sheet %q: %w", s.Name, err)
	}
	w.sheets = append(w.sheets, s.Name)

	row := 1
	if s.Title != "" {
		if err := w.file.SetCellValue(s.Name, "A1", s.Title); err != nil {
			return err
		}
		if err := w.file.SetCellStyle(s.Name, "A1", "A1", w.header); err != nil {
			return err
		}
		row = 3
	}
	if len(s.Columns) > 0 {
		headers := make([]any, len(s.Columns))
		for i, c := range s.Columns {
			headers[i] = c.Header
			if c.Width > 0 {
				col, err := excelize.ColumnNumberToName(i + 1)
				if err != nil {
					return err
				}
				if err := w.file.SetColWidth(s.Name, col, col, c.Width); err != nil {
					return err
				}
			}
		}
		if err := w.writeRow(s.Name, row, headers); err != nil {
			return err
		}
		if err := w.styleRow(s.Name, row, len(headers), w.header); err != nil {
			return err
		}
		row++
	}

	highlight := make(map[int]bool, len(s.Highlight))
	for _, i := range s.Highlight {
		highlight[i] = true
	}
	for i, values := range s.Rows {
		if err := w.writeRow(s.Name, row, values); err != nil {
			return err
		}
		if highlight[i] {
			if err := w.styleRow(s.Name, row, len(values), w.header); err != nil {
				return err
			}
		}
		row++
	}
	return nil
}

func (w *Workbook) writeRow(sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		style := 0
		switch x := v.(type) {
		case decimal.Decimal:
			v = x.InexactFloat64()
			style = w.currency
		case Percent:
			v = float64(x)
			style = w.percent
		case *string:
			if x == nil {
				v = ""
			} else {
				v = *x
			}
		}
		if err := w.file.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("export: %s!%s: %w", sheet, cell, err)
		}
		if style != 0 {
			if err := w.file.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Workbook) styleRow(sheet string, row, width, style int) error {
	if width == 0 {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(sheet, first, last, style)
}

// Write streams the workbook.
func (w *Workbook) Write(out io.Writer) error {
	return w.file.Write(out)
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	return w.file.SaveAs(path)
}

// Close releases temporary files held by the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}
