package layout

import (
	"regexp"

	"github.com/tbellem/finrep/model"
)

// tableRowHeight is the fixed vertical band assigned to a detected row.
const tableRowHeight = 15

var (
	hasDigit = regexp.MustCompile(`\d`)
	// Grouped-thousands numeric literal: three digits, a dot or comma,
	// three digits. Matches both "123.456,78" and "123,456.78" styles.
	tableRowPattern = regexp.MustCompile(`\d{3}[.,]\d{3}`)
)

// TableConfig controls table detection. MinCols and MinRows are declared
// for forward compatibility; the current heuristic emits one single-cell
// row per matched line and does not enforce them.
type TableConfig struct {
	MinCols int
	MinRows int
}

// DetectTables scans a page's elements for lines that look like table
// rows: text containing a grouped-thousands numeric literal. Each match
// yields one Table spanning the full page width at the element's
// vertical position, holding that one line as its only cell. Lines
// without a numeric pattern are silently skipped; no errors are raised.
func DetectTables(page *model.Page, cfg TableConfig) []model.Table {
	width := page.Width
	if width <= 0 {
		width = 1000
	}

	var tables []model.Table
	for _, el := range page.Elements {
		if el.Text == "" || !hasDigit.MatchString(el.Text) {
			continue
		}
		if !tableRowPattern.MatchString(el.Text) {
			continue
		}
		tables = append(tables, model.Table{
			Rect: model.Rect{X0: 0, Y0: el.Y0, X1: width, Y1: el.Y0 + tableRowHeight},
			Rows: [][]string{{el.Text}},
			Type: model.ElementTable,
		})
	}
	return tables
}
