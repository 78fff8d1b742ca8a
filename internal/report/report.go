package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// Formats
const (
	FormatCSV   = "csv"
	FormatTable = "table"
)

// TotalLabel labels the trailing row that sums every column
const TotalLabel = "total"

// Row is one period of the report. A nil value means the period lacks that field.
type Row struct {
	Label  string
	Values []*float64
}

// Table is a report with a label column followed by numeric columns
type Table struct {
	Header []string
	Rows   []Row
}

// complete reports whether the row has a value for every numeric column
func (t *Table) complete(r Row) bool {
	if len(r.Values) != len(t.Header)-1 {
		return false
	}
	for _, v := range r.Values {
		if v == nil {
			return false
		}
	}
	return true
}

// Emitted returns the rows that will be printed. Incomplete rows are dropped.
func (t *Table) Emitted() []Row {
	var rows []Row
	for _, r := range t.Rows {
		if t.complete(r) {
			rows = append(rows, r)
		}
	}
	return rows
}

// Totals sums each numeric column over the emitted rows. It returns nil when no row is
// emitted, which prints as "?".
func (t *Table) Totals() []float64 {
	rows := t.Emitted()
	if len(rows) == 0 {
		return nil
	}
	totals := make([]float64, len(t.Header)-1)
	for _, r := range rows {
		for i, v := range r.Values {
			totals[i] += *v
		}
	}
	return totals
}

// Write renders the table in the given format
func Write(w io.Writer, t *Table, format string) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, t)
	case FormatTable:
		return WriteText(w, t)
	default:
		return fmt.Errorf("unknown report format %q (want %s or %s)", format, FormatCSV, FormatTable)
	}
}

// WriteCSV writes the header, the emitted rows and the total row with two-decimal numbers
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, line := range t.lines(func(v float64) string { return fmt.Sprintf("%0.2f", v) }) {
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes an aligned table with thousands separators
func WriteText(w io.Writer, t *Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(t.Header, "\t")+"\t")
	for _, line := range t.lines(func(v float64) string { return humanize.FormatFloat("#,###.##", v) }) {
		fmt.Fprintln(tw, strings.Join(line, "\t")+"\t")
	}
	return tw.Flush()
}

func (t *Table) lines(format func(float64) string) [][]string {
	var lines [][]string
	for _, r := range t.Emitted() {
		line := []string{r.Label}
		for _, v := range r.Values {
			line = append(line, format(*v))
		}
		lines = append(lines, line)
	}

	total := []string{TotalLabel}
	totals := t.Totals()
	for i := 0; i < len(t.Header)-1; i++ {
		if totals == nil {
			total = append(total, "?")
			continue
		}
		total = append(total, format(totals[i]))
	}
	return append(lines, total)
}
