package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/torosent/wordstress/internal/metrics"
)

type csvFormatter struct{}

func (csvFormatter) Format(w io.Writer, doc Document) error {
	r := doc.Report
	rows := [][]string{
		{"Metric", "Value"},
		{"Total Requests", strconv.Itoa(r.TotalRequests)},
		{"Duration (seconds)", fmt.Sprintf("%.2f", r.Duration)},
		{"Success Rate (%)", fmt.Sprintf("%.2f", r.SuccessRate)},
		{"Throughput (req/s)", fmt.Sprintf("%.2f", r.Throughput)},
		{"Data Transferred (bytes)", strconv.FormatInt(r.DataTransferred, 10)},
		{""},
		{"Response Time Metrics"},
		{"Min (ms)", fmt.Sprintf("%.2f", r.ResponseTime.Min)},
		{"Max (ms)", fmt.Sprintf("%.2f", r.ResponseTime.Max)},
		{"Average (ms)", fmt.Sprintf("%.2f", r.ResponseTime.Avg)},
		{"Median P50 (ms)", fmt.Sprintf("%.2f", r.ResponseTime.Median)},
		{"P95 (ms)", fmt.Sprintf("%.2f", r.ResponseTime.P95)},
		{"P99 (ms)", fmt.Sprintf("%.2f", r.ResponseTime.P99)},
		{""},
		{"Status Code Distribution"},
	}
	for _, row := range metrics.FlattenStatusBuckets(r.StatusCodes) {
		rows = append(rows, []string{statusLabels[row.Bucket], strconv.Itoa(row.Count)})
	}
	if r.ErrorTotal > 0 {
		rows = append(rows, []string{""}, []string{"Error Details"})
		for _, e := range metrics.SortedErrors(r.Errors) {
			rows = append(rows, []string{e.Message, strconv.Itoa(e.Count)})
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
