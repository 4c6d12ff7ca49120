package pkg

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/catalogadmin/internal/listview"
)

// WriteCSV writes rows projected through cols as CSV, header first.
func WriteCSV[T any](w io.Writer, cols listview.ExportColumns[T], rows []T) error {
	header, records := cols.CSVTable(rows)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	return nil
}

// ExportFilename returns a timestamped export file name such as
// "brands-20240102-150405.csv".
func ExportFilename(resource string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", resource, now.UTC().Format("20060102-150405"))
}

// CSVAttachment streams rows as a downloadable CSV file.
func CSVAttachment[T any](c *gin.Context, filename string, cols listview.ExportColumns[T], rows []T) error {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	return WriteCSV(c.Writer, cols, rows)
}
