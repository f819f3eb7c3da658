// Package export writes analysis results to spreadsheet workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tbellem/finrep/layout"
	"github.com/tbellem/finrep/model"
)

// WorkbookInput is everything the exporter needs from one analyzed
// document.
type WorkbookInput struct {
	Filename string
	Year     int
	Pages    []*model.Page
	Sections []Section
}

// Section mirrors a financial summary section for the overview sheet.
type Section struct {
	Title string
	Text  string
}

// WriteWorkbook writes an XLSX workbook with one overview sheet and one
// sheet per page that has detected tables. Numeric-looking cells are
// written as numbers so spreadsheet formulas work on them.
func WriteWorkbook(in WorkbookInput, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const overview = "Overview"
	f.SetSheetName(f.GetSheetName(0), overview)

	f.SetCellValue(overview, "A1", "Document")
	f.SetCellValue(overview, "B1", in.Filename)
	f.SetCellValue(overview, "A2", "Report year")
	if in.Year > 0 {
		f.SetCellValue(overview, "B2", in.Year)
	} else {
		f.SetCellValue(overview, "B2", "unknown")
	}

	row := 4
	for _, sec := range in.Sections {
		f.SetCellValue(overview, fmt.Sprintf("A%d", row), sec.Title)
		f.SetCellValue(overview, fmt.Sprintf("B%d", row), sec.Text)
		row++
	}

	for _, page := range in.Pages {
		if len(page.Tables) == 0 {
			continue
		}
		sheet := fmt.Sprintf("Page %d", page.Index+1)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet, err)
		}
		r := 1
		for _, table := range page.Tables {
			for _, cells := range table.Rows {
				for c, cell := range cells {
					axis, err := excelize.CoordinatesToCellName(c+1, r)
					if err != nil {
						return fmt.Errorf("cell address: %w", err)
					}
					if v, ok := layout.ParseNumericValue(cell); ok {
						f.SetCellValue(sheet, axis, v)
					} else {
						f.SetCellValue(sheet, axis, cell)
					}
				}
				r++
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
