package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"

	"github.com/sells-group/extract-chat/internal/export"
	"github.com/sells-group/extract-chat/internal/extract"
	"github.com/sells-group/extract-chat/internal/model"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatCSV   outputFormat = "csv"
	formatRaw   outputFormat = "raw"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatTable, formatJSON, formatCSV, formatRaw:
		return f, nil
	}
	return "", eris.Errorf("unsupported output format %q", s)
}

func renderOutcome(w io.Writer, out *extract.Outcome, f outputFormat) error {
	res := out.Result
	switch f {
	case formatRaw:
		_, err := fmt.Fprintln(w, string(out.Payload))
		return err
	case formatJSON:
		return renderJSON(w, res)
	case formatCSV:
		if res.Kind != extract.KindTable {
			_, err := fmt.Fprintln(w, res.Text)
			return err
		}
		return export.WriteCSV(w, res.Table)
	default:
		if res.Kind != extract.KindTable {
			_, err := fmt.Fprintln(w, res.Text)
			return err
		}
		if err := renderTable(w, res.Table); err != nil {
			return err
		}
		fmt.Fprintln(w, successStyle.Render("Extraction completed successfully!"))
		_, err := fmt.Fprintln(w, mutedStyle.Render(
			fmt.Sprintf("%d row(s) in %s", res.Table.NumRows(), out.Duration.Round(100*time.Millisecond))))
		return err
	}
}

func renderJSON(w io.Writer, res extract.Result) error {
	if res.Kind == extract.KindTable {
		b, err := extract.EncodeRecords(res.Table)
		if err != nil {
			return eris.Wrap(err, "encode records")
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	enc := json.NewEncoder(w)
	return enc.Encode(res)
}

// columnGap separates table columns.
const columnGap = "  "

// renderTable aligns columns by visible width, so styled headers line up
// with plain cells on color terminals.
func renderTable(w io.Writer, t *model.Table) error {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = headerStyle.Render(c)
	}
	if _, err := fmt.Fprintln(w, alignRow(header, widths)); err != nil {
		return eris.Wrap(err, "write table header")
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(w, alignRow(row, widths)); err != nil {
			return eris.Wrap(err, "write table row")
		}
	}
	return nil
}

// alignRow pads each cell to its column width. Padding is computed from the
// visible width, ignoring ANSI escapes.
func alignRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(columnGap)
		}
		b.WriteString(cell)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", max(widths[i]-lipgloss.Width(cell), 0)))
		}
	}
	return b.String()
}
