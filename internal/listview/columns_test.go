package listview

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

func TestProject(t *testing.T) {
	cols, err := Project(itemColumns)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(cols.Display) != 3 || len(cols.CSV) != 3 || len(cols.PDF) != 3 {
		t.Fatalf("lengths = %d/%d/%d", len(cols.Display), len(cols.CSV), len(cols.PDF))
	}
	for i := range cols.CSV {
		if cols.CSV[i].Key != itemColumns[i].Key || cols.CSV[i].Label != itemColumns[i].Label {
			t.Errorf("csv[%d] = %s/%s", i, cols.CSV[i].Key, cols.CSV[i].Label)
		}
	}
	if cols.PDF[1].Width != 30 {
		t.Errorf("pdf name width = %v, want 30", cols.PDF[1].Width)
	}
	if cols.PDF[0].Width != 0 {
		t.Errorf("pdf id width = %v, want unset", cols.PDF[0].Width)
	}

	csvJSON, err := json.Marshal(cols.CSV)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(csvJSON), "width") {
		t.Errorf("csv columns carry a width: %s", csvJSON)
	}
}

func TestProjectRejectsInvalidColumns(t *testing.T) {
	acc := func(item) string { return "" }
	tests := []struct {
		name string
		cols []Column[item]
	}{
		{"empty key", []Column[item]{{Key: "", Label: "X", Accessor: acc}}},
		{"duplicate key", []Column[item]{{Key: "a", Accessor: acc}, {Key: "a", Accessor: acc}}},
		{"missing accessor", []Column[item]{{Key: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Project(tt.cols); !domain.IsValidation(err) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestExportTables(t *testing.T) {
	cols := MustProject(itemColumns)
	rows := []item{{ID: 7, Name: "Acme", Status: true}}

	header, records := cols.CSVTable(rows)
	if !slices.Equal(header, []string{"ID", "Name", "Status"}) {
		t.Errorf("header = %v", header)
	}
	if len(records) != 1 || !slices.Equal(records[0], []string{"7", "Acme", "Active"}) {
		t.Errorf("records = %v", records)
	}

	_, widths, pdfRecords := cols.PDFTable(rows)
	if !slices.Equal(widths, []float64{0, 30, 0}) {
		t.Errorf("widths = %v", widths)
	}
	if !slices.Equal(pdfRecords[0], records[0]) {
		t.Errorf("pdf records %v differ from csv %v", pdfRecords[0], records[0])
	}

	dispHeader, dispRecords := cols.DisplayTable(rows)
	if !slices.Equal(dispHeader, header) || !slices.Equal(dispRecords[0], records[0]) {
		t.Errorf("display table = %v %v", dispHeader, dispRecords)
	}
}

func TestMustProjectPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustProject([]Column[item]{{Key: "a"}})
}
