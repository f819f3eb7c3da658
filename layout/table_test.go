package layout

import (
	"testing"

	"github.com/tbellem/finrep/model"
)

func TestDetectTablesNumericLines(t *testing.T) {
	page := &model.Page{
		Width:  595,
		Height: 842,
		Elements: []model.Element{
			el(700, "Total assets 123.456,78"),
			el(680, "Narrative text without figures"),
			el(660, "Net revenue 1,234,567.00"),
			el(640, "Founded in 1999"), // digits, but no grouped-thousands pattern
		},
	}

	tables := DetectTables(page, TableConfig{MinCols: 2, MinRows: 2})
	if len(tables) != 2 {
		t.Fatalf("DetectTables returned %d tables, want 2", len(tables))
	}

	first := tables[0]
	if first.X0 != 0 || first.X1 != 595 {
		t.Errorf("table spans x %v..%v, want 0..595", first.X0, first.X1)
	}
	if first.Y0 != 700 || first.Y1 != 715 {
		t.Errorf("table spans y %v..%v, want 700..715", first.Y0, first.Y1)
	}
	if got := first.Rows[0][0]; got != "Total assets 123.456,78" {
		t.Errorf("row cell = %q", got)
	}
	if first.Type != model.ElementTable {
		t.Errorf("table Type = %q, want %q", first.Type, model.ElementTable)
	}
}

func TestDetectTablesNoWidthFallsBack(t *testing.T) {
	page := &model.Page{
		Elements: []model.Element{el(100, "Equity 987.654,32")},
	}
	tables := DetectTables(page, TableConfig{})
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if tables[0].X1 != 1000 {
		t.Errorf("fallback width = %v, want 1000", tables[0].X1)
	}
}

func TestDetectTablesSkipsPlainText(t *testing.T) {
	page := &model.Page{
		Width: 595,
		Elements: []model.Element{
			el(100, "Management discussion and analysis"),
			el(80, ""),
		},
	}
	if tables := DetectTables(page, TableConfig{}); len(tables) != 0 {
		t.Errorf("got %d tables for plain text, want 0", len(tables))
	}
}
