package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/simp-lee/catalogadmin/internal/listview"
)

func renderTable(w io.Writer, header []string, records [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(records)
	table.Render()
}

// pageSummary describes the page shown, e.g. "Page 1 of 2, 3 brands (server)".
func pageSummary(name string, p listview.Pagination, mode listview.PaginationMode) string {
	return fmt.Sprintf("Page %d of %d, %d %s (%s)", p.CurrentPage, p.TotalPages(), p.TotalItems, name, mode)
}
