package listview

import (
	"fmt"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

// Column declares one field of a list screen. Accessor must return the final
// display string (dates formatted, missing values replaced by a placeholder).
// PDFWidth is optional; zero leaves the width to the PDF renderer.
type Column[T any] struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Accessor func(T) string `json:"-"`
	PDFWidth float64        `json:"pdf_width,omitempty"`
}

// CSVColumn is a column of the CSV export. It carries no width.
type CSVColumn[T any] struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Accessor func(T) string `json:"-"`
}

// PDFColumn is a column of the PDF export.
type PDFColumn[T any] struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Accessor func(T) string `json:"-"`
	Width    float64        `json:"width,omitempty"`
}

// ExportColumns holds the three projections of one column list.
type ExportColumns[T any] struct {
	Display []Column[T]    `json:"display"`
	CSV     []CSVColumn[T] `json:"csv"`
	PDF     []PDFColumn[T] `json:"pdf"`
}

// Project derives the display, CSV, and PDF column sets from columns.
// Keys must be non-empty and unique and every column needs an accessor.
func Project[T any](columns []Column[T]) (ExportColumns[T], error) {
	seen := make(map[string]struct{}, len(columns))
	out := ExportColumns[T]{
		Display: make([]Column[T], 0, len(columns)),
		CSV:     make([]CSVColumn[T], 0, len(columns)),
		PDF:     make([]PDFColumn[T], 0, len(columns)),
	}
	for i, c := range columns {
		if c.Key == "" {
			return ExportColumns[T]{}, domain.NewAppError(domain.CodeValidation,
				fmt.Sprintf("column %d has an empty key", i), nil)
		}
		if _, dup := seen[c.Key]; dup {
			return ExportColumns[T]{}, domain.NewAppError(domain.CodeValidation,
				fmt.Sprintf("duplicate column key %q", c.Key), nil)
		}
		if c.Accessor == nil {
			return ExportColumns[T]{}, domain.NewAppError(domain.CodeValidation,
				fmt.Sprintf("column %q has no accessor", c.Key), nil)
		}
		seen[c.Key] = struct{}{}

		out.Display = append(out.Display, c)
		out.CSV = append(out.CSV, CSVColumn[T]{Key: c.Key, Label: c.Label, Accessor: c.Accessor})
		out.PDF = append(out.PDF, PDFColumn[T]{Key: c.Key, Label: c.Label, Accessor: c.Accessor, Width: c.PDFWidth})
	}
	return out, nil
}

// MustProject is like Project but panics on an invalid column list.
// It is meant for package-level column declarations.
func MustProject[T any](columns []Column[T]) ExportColumns[T] {
	out, err := Project(columns)
	if err != nil {
		panic("listview.MustProject: " + err.Error())
	}
	return out
}

// DisplayTable returns the header labels and cell values of rows for the
// display table.
func (e ExportColumns[T]) DisplayTable(rows []T) (header []string, records [][]string) {
	header = make([]string, len(e.Display))
	for i, c := range e.Display {
		header[i] = c.Label
	}
	records = make([][]string, len(rows))
	for r, row := range rows {
		cells := make([]string, len(e.Display))
		for i, c := range e.Display {
			cells[i] = c.Accessor(row)
		}
		records[r] = cells
	}
	return header, records
}

// CSVTable returns the header labels and cell values of rows for CSV output.
func (e ExportColumns[T]) CSVTable(rows []T) (header []string, records [][]string) {
	header = make([]string, len(e.CSV))
	for i, c := range e.CSV {
		header[i] = c.Label
	}
	records = make([][]string, len(rows))
	for r, row := range rows {
		cells := make([]string, len(e.CSV))
		for i, c := range e.CSV {
			cells[i] = c.Accessor(row)
		}
		records[r] = cells
	}
	return header, records
}

// PDFTable returns the header labels, column widths, and cell values of rows
// for a PDF renderer. A zero width means unset.
func (e ExportColumns[T]) PDFTable(rows []T) (header []string, widths []float64, records [][]string) {
	header = make([]string, len(e.PDF))
	widths = make([]float64, len(e.PDF))
	for i, c := range e.PDF {
		header[i] = c.Label
		widths[i] = c.Width
	}
	records = make([][]string, len(rows))
	for r, row := range rows {
		cells := make([]string, len(e.PDF))
		for i, c := range e.PDF {
			cells[i] = c.Accessor(row)
		}
		records[r] = cells
	}
	return header, widths, records
}
