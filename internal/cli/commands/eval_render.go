package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapplan/internal/eval"
)

// renderEntries prints multiset entries in the requested format.
// Columns are positional (c0, c1, ...) with a trailing count column.
func renderEntries(w io.Writer, entries []eval.Entry, format string) error {
	switch format {
	case "json":
		return renderEntriesJSON(w, entries)
	case "csv":
		return renderEntriesCSV(w, entries)
	case "md", "markdown":
		return renderEntriesMarkdown(w, entries)
	default:
		return renderEntriesTable(w, entries)
	}
}

// entryColumns derives the header from the widest row.
func entryColumns(entries []eval.Entry) []string {
	width := 0
	for _, e := range entries {
		if len(e.Row) > width {
			width = len(e.Row)
		}
	}
	cols := make([]string, 0, width+1)
	for i := 0; i < width; i++ {
		cols = append(cols, fmt.Sprintf("c%d", i))
	}
	return append(cols, "count")
}

// entryCells formats one entry padded to width columns plus count.
func entryCells(e eval.Entry, width int) []string {
	cells := make([]string, width+1)
	for i, v := range e.Row {
		cells[i] = strconv.FormatInt(v, 10)
	}
	cells[width] = strconv.FormatInt(e.Count, 10)
	return cells
}

func renderEntriesTable(w io.Writer, entries []eval.Entry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	cols := entryColumns(entries)
	width := len(cols) - 1

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, e := range entries {
		cells := entryCells(e, width)
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(entries))
	return nil
}

// entryJSON is the JSON shape of one multiset entry.
type entryJSON struct {
	Row   []int64 `json:"row"`
	Count int64   `json:"count"`
}

func renderEntriesJSON(w io.Writer, entries []eval.Entry) error {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		row := e.Row
		if row == nil {
			row = []int64{}
		}
		out = append(out, entryJSON{Row: row, Count: e.Count})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderEntriesCSV(w io.Writer, entries []eval.Entry) error {
	cols := entryColumns(entries)
	width := len(cols) - 1

	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))
	for _, e := range entries {
		_, _ = fmt.Fprintln(w, strings.Join(entryCells(e, width), ","))
	}
	return nil
}

func renderEntriesMarkdown(w io.Writer, entries []eval.Entry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	cols := entryColumns(entries)
	width := len(cols) - 1

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(entryCells(e, width), " | "))
	}
	return nil
}
