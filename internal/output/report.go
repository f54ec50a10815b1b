package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/tokenstorm/tokenstorm/internal/metrics"
	"github.com/tokenstorm/tokenstorm/internal/threshold"
)

// PrintReport outputs a human-readable summary of the run.
func PrintReport(w io.Writer, report *metrics.Report) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", report.RunID)
	fmt.Fprintf(w, "Target:            %s (%s)\n", report.Config.Target, report.Config.Model)
	fmt.Fprintf(w, "Total Requests:    %d\n", report.Summary.TotalRequests)
	fmt.Fprintf(w, "Successful:        %d\n", report.Summary.SuccessCount)
	fmt.Fprintf(w, "Failed:            %d (%.2f%%)\n", report.Summary.ErrorCount, report.Summary.ErrorRatePercent)
	fmt.Fprintf(w, "Duration:          %.2fs\n", report.Summary.ActualDurationSeconds)
	fmt.Fprintf(w, "Requests/sec:      %.2f (target %.2f)\n", report.Summary.ActualRps, report.Config.TargetRps)
	if report.Summary.DrainTimedOut {
		fmt.Fprintf(w, "Drain:             timed out; %d issued, %d settled\n",
			report.Summary.IssuedCount, report.Summary.TotalRequests)
	}

	fmt.Fprintln(w, "\nLatency (ms):")
	fmt.Fprintf(w, "  Min:             %.1f\n", report.Latency.Min)
	fmt.Fprintf(w, "  Max:             %.1f\n", report.Latency.Max)
	fmt.Fprintf(w, "  Mean:            %.1f\n", report.Latency.Mean)
	fmt.Fprintf(w, "  Median:          %.1f\n", report.Latency.Median)
	fmt.Fprintf(w, "  P50:             %.1f\n", report.Latency.P50)
	fmt.Fprintf(w, "  P90:             %.1f\n", report.Latency.P90)
	fmt.Fprintf(w, "  P95:             %.1f\n", report.Latency.P95)
	fmt.Fprintf(w, "  P99:             %.1f\n", report.Latency.P99)
	fmt.Fprintf(w, "  StdDev:          %.1f\n", report.Latency.StdDev)

	if report.Summary.SuccessCount > 0 {
		fmt.Fprintln(w, "\nTokens:")
		fmt.Fprintf(w, "  Input:           %d total, %.1f avg/request\n",
			report.Tokens.TotalInput, report.Tokens.AvgInputPerRequest)
		fmt.Fprintf(w, "  Output:          %d total, %.1f avg/request\n",
			report.Tokens.TotalOutput, report.Tokens.AvgOutputPerRequest)
	}

	if len(report.ErrorsByCategory) > 0 {
		fmt.Fprintln(w, "\nErrors by Category:")
		categories := make([]string, 0, len(report.ErrorsByCategory))
		for category := range report.ErrorsByCategory {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool {
			left, right := categories[i], categories[j]
			if report.ErrorsByCategory[left] != report.ErrorsByCategory[right] {
				return report.ErrorsByCategory[left] > report.ErrorsByCategory[right]
			}
			return left < right
		})
		for _, category := range categories {
			fmt.Fprintf(w, "  %-16s %d\n", category+":", report.ErrorsByCategory[category])
		}
	}
}

// PrintJSONReport writes the full report as indented JSON.
func PrintJSONReport(w io.Writer, report *metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// PrintThresholds writes one line per threshold result.
func PrintThresholds(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}
