// Package export projects reports into flat tabular rows and writes them as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Columns is the header of the per-entry export, in order.
var Columns = []string{
	"type", "source", "subsystem", "message_id", "timestamp",
	"message", "short_description", "location", "line", "stacktrace",
}

// GroupColumns is the header of the grouped export, in order.
var GroupColumns = []string{
	"category", "type", "source", "subsystem", "message_id",
	"count", "short_description", "location", "lines", "stacktraces",
}

// Row is one entry flattened for tabular output.
type Row struct {
	Type             string
	Source           string
	Subsystem        string
	MessageID        string
	Timestamp        string
	Message          string
	ShortDescription string
	Location         string
	Line             int
	StackTrace       string
}

// Record returns the row's cells in Columns order.
func (r Row) Record() []string {
	return []string{
		r.Type, r.Source, r.Subsystem, r.MessageID, r.Timestamp,
		r.Message, r.ShortDescription, r.Location, strconv.Itoa(r.Line), r.StackTrace,
	}
}

// GroupRow is one group flattened for tabular output.
type GroupRow struct {
	Category         model.Category
	Type             string
	Source           string
	Subsystem        string
	MessageID        string
	Count            int
	ShortDescription string
	Location         string
	Lines            string // comma-separated line numbers
	StackTraces      string // blocks separated by a blank line
}

// Record returns the row's cells in GroupColumns order.
func (g GroupRow) Record() []string {
	return []string{
		string(g.Category), g.Type, g.Source, g.Subsystem, g.MessageID,
		strconv.Itoa(g.Count), g.ShortDescription, g.Location, g.Lines, g.StackTraces,
	}
}

// Rows flattens exceptions, then errors, then warns, each in list order.
func Rows(r model.Report) []Row {
	rows := make([]Row, 0, len(r.Exceptions)+len(r.Errors)+len(r.Warns))
	for _, list := range [][]model.Entry{r.Exceptions, r.Errors, r.Warns} {
		for _, e := range list {
			rows = append(rows, Row{
				Type:             e.Type,
				Source:           e.Source.String(),
				Subsystem:        e.Subsystem,
				MessageID:        e.MessageID,
				Timestamp:        e.Timestamp,
				Message:          e.Message,
				ShortDescription: e.ShortDescription,
				Location:         e.Location,
				Line:             e.FirstLine(),
				StackTrace:       joinStack(e.StackTrace),
			})
		}
	}
	return rows
}

// GroupRows flattens the grouped lists in the same category order as Rows.
func GroupRows(r model.Report) []GroupRow {
	var rows []GroupRow
	add := func(cat model.Category, groups []model.Group) {
		for _, g := range groups {
			lines := make([]string, len(g.Lines))
			for i, n := range g.Lines {
				lines[i] = strconv.Itoa(n)
			}
			rows = append(rows, GroupRow{
				Category:         cat,
				Type:             g.Type,
				Source:           g.Source.String(),
				Subsystem:        g.Subsystem,
				MessageID:        g.MessageID,
				Count:            g.Count,
				ShortDescription: g.ShortDescription,
				Location:         g.Location,
				Lines:            strings.Join(lines, ","),
				StackTraces:      strings.Join(g.StackTraces, "\n\n"),
			})
		}
	}
	add(model.CategoryException, r.ExceptionsGrouped)
	add(model.CategoryError, r.ErrorsGrouped)
	add(model.CategoryWarn, r.WarnsGrouped)
	return rows
}

// WriteCSV writes the report as CSV with a header row. When grouped is true the
// grouped lists are exported instead of the flat ones.
func WriteCSV(w io.Writer, r model.Report, grouped bool) error {
	var records [][]string
	header := Columns
	if grouped {
		header = GroupColumns
		for _, g := range GroupRows(r) {
			records = append(records, g.Record())
		}
	} else {
		for _, row := range Rows(r) {
			records = append(records, row.Record())
		}
	}
	return write(w, header, records)
}

func write(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("export: write rows: %w", err)
	}
	return nil
}

func joinStack(lines []string) string {
	if len(lines) == 0 {
		return model.Placeholder
	}
	return strings.Join(lines, "\n")
}
