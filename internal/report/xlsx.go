package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

// SheetName is the worksheet holding the report.
const SheetName = "Sheet1"

// LevelColors is the fill colour of each labeled cell.
var LevelColors = map[moneyflow.Level]string{
	moneyflow.Resistance1: "#B60A1C",
	moneyflow.Resistance2: "#E03531",
	moneyflow.Resistance3: "#FF684C",
	moneyflow.Support1:    "#309143",
	moneyflow.Support2:    "#51B364",
	moneyflow.Support3:    "#8ACE7E",
}

// NewWorkbook renders res into a single-sheet workbook. The caller closes
// the returned file.
func NewWorkbook(res *moneyflow.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSheet(f, res); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, res *moneyflow.Result) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	levelStyles := make(map[moneyflow.Level]int, len(LevelColors))
	for level, color := range LevelColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("creating style for %s: %w", level, err)
		}
		levelStyles[level] = id
	}

	for i, rec := range Records(res) {
		rowNum := i + 2
		start, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		cells := rec.Cells()
		if err := f.SetSheetRow(SheetName, start, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", rowNum, err)
		}

		style, ok := levelStyles[moneyflow.Level(rec.Level)]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(len(Columns), rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return fmt.Errorf("styling %s: %w", cell, err)
		}
	}
	return nil
}

// WriteXLSX streams the workbook for res to w.
func WriteXLSX(w io.Writer, res *moneyflow.Result) error {
	f, err := NewWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
