package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/torosent/wordstress/internal/metrics"
)

var statusLabels = map[string]string{
	metrics.Bucket2xx:   "2xx Success",
	metrics.Bucket3xx:   "3xx Redirect",
	metrics.Bucket4xx:   "4xx Client Error",
	metrics.Bucket5xx:   "5xx Server Error",
	metrics.BucketOther: "Other",
}

// TableFormatter renders the report as boxed two-column tables.
type TableFormatter struct {
	border *color.Color
}

// NewTableFormatter creates a table formatter with cyan borders unless
// noColor is set.
func NewTableFormatter(noColor bool) *TableFormatter {
	border := color.New(color.FgCyan)
	if noColor {
		border.DisableColor()
	} else {
		border.EnableColor()
	}
	return &TableFormatter{border: border}
}

func (f *TableFormatter) Format(w io.Writer, doc Document) error {
	r := doc.Report
	var sb strings.Builder

	f.section(&sb, "Summary", [2]string{"Metric", "Value"}, [2]int{25, 40}, [][2]string{
		{"Total Requests", strconv.Itoa(r.TotalRequests)},
		{"Duration", FormatSeconds(r.Duration)},
		{"Success Rate", fmt.Sprintf("%.2f%%", r.SuccessRate)},
		{"Throughput", fmt.Sprintf("%.2f req/s", r.Throughput)},
		{"Data Transferred", FormatBytes(r.DataTransferred)},
	})
	sb.WriteString("\n")

	f.section(&sb, "Response Times", [2]string{"Metric", "Value"}, [2]int{25, 40}, [][2]string{
		{"Min", formatMs(r.ResponseTime.Min)},
		{"Max", formatMs(r.ResponseTime.Max)},
		{"Average", formatMs(r.ResponseTime.Avg)},
		{"Median (P50)", formatMs(r.ResponseTime.Median)},
		{"P95", formatMs(r.ResponseTime.P95)},
		{"P99", formatMs(r.ResponseTime.P99)},
	})
	sb.WriteString("\n")

	var statusRows [][2]string
	for _, row := range metrics.FlattenStatusBuckets(r.StatusCodes) {
		statusRows = append(statusRows, [2]string{statusLabels[row.Bucket], strconv.Itoa(row.Count)})
	}
	f.section(&sb, "Status Codes", [2]string{"Status Code", "Count"}, [2]int{25, 40}, statusRows)

	if r.ErrorTotal > 0 {
		sb.WriteString("\n")
		var errorRows [][2]string
		for _, e := range metrics.SortedErrors(r.Errors) {
			errorRows = append(errorRows, [2]string{e.Message, strconv.Itoa(e.Count)})
		}
		f.section(&sb, "Errors", [2]string{"Error Type", "Count"}, [2]int{40, 20}, errorRows)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// section writes a title followed by a boxed table. Widths include one space
// of padding on each side.
func (f *TableFormatter) section(sb *strings.Builder, title string, head [2]string, widths [2]int, rows [][2]string) {
	sb.WriteString(title)
	sb.WriteString("\n")

	f.rule(sb, "┌", "┬", "┐", widths)
	f.row(sb, head, widths)
	f.rule(sb, "├", "┼", "┤", widths)
	for i, row := range rows {
		if i > 0 {
			f.rule(sb, "├", "┼", "┤", widths)
		}
		f.row(sb, row, widths)
	}
	f.rule(sb, "└", "┴", "┘", widths)
}

func (f *TableFormatter) rule(sb *strings.Builder, left, mid, right string, widths [2]int) {
	line := left + strings.Repeat("─", widths[0]) + mid + strings.Repeat("─", widths[1]) + right
	sb.WriteString(f.border.Sprint(line))
	sb.WriteString("\n")
}

func (f *TableFormatter) row(sb *strings.Builder, cells [2]string, widths [2]int) {
	bar := f.border.Sprint("│")
	sb.WriteString(bar)
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(fitCell(cell, widths[i]-2))
		sb.WriteString(" ")
		sb.WriteString(bar)
	}
	sb.WriteString("\n")
}

// fitCell pads s to width display columns, truncating with an ellipsis when
// it does not fit. Newlines are flattened so a row stays on one line.
func fitCell(s string, width int) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
