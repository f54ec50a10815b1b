package metrics

import (
	"math"
	"sort"

	"github.com/tokenstorm/tokenstorm/internal/runner"
)

// Build reduces a frozen run result into the final report. It is a pure
// function: the same inputs always produce a byte-identical report.
func Build(runID string, cfg ConfigSnapshot, result runner.Result) *Report {
	outcomes := result.Outcomes

	latencies := make([]float64, 0, len(outcomes))
	successLatencies := make([]float64, 0, len(outcomes))
	var successCount, errorCount int
	var totalInput, totalOutput int64
	errorsByCategory := map[string]int{}

	for _, o := range outcomes {
		latencies = append(latencies, float64(o.LatencyMs))
		if o.Success {
			successCount++
			successLatencies = append(successLatencies, float64(o.LatencyMs))
			totalInput += int64(o.InputTokens)
			totalOutput += int64(o.OutputTokens)
		} else {
			errorCount++
			errorsByCategory[Categorize(o.Error)]++
		}
	}
	sort.Float64s(latencies)
	sort.Float64s(successLatencies)

	total := len(outcomes)
	actualDuration := result.End.Sub(result.Start).Seconds()

	summary := Summary{
		TotalRequests:         total,
		SuccessCount:          successCount,
		ErrorCount:            errorCount,
		ActualDurationSeconds: actualDuration,
		IssuedCount:           result.Issued,
		DrainTimedOut:         result.DrainTimedOut,
	}
	if total > 0 {
		summary.ErrorRatePercent = round2(100 * float64(errorCount) / float64(total))
	}
	if actualDuration > 0 {
		summary.ActualRps = round2(float64(total) / actualDuration)
	}

	latency := LatencyStats{
		Mean:   mean(latencies),
		StdDev: stdDev(latencies),
		// median deliberately comes from the full array while the pN fields
		// use successes only; the asymmetry is part of the report contract.
		Median: percentile(50, latencies),
		P50:    percentile(50, successLatencies),
		P90:    percentile(90, successLatencies),
		P95:    percentile(95, successLatencies),
		P99:    percentile(99, successLatencies),
	}
	if len(latencies) > 0 {
		latency.Min = latencies[0]
		latency.Max = latencies[len(latencies)-1]
	}

	tokens := TokenStats{
		TotalInput:  totalInput,
		TotalOutput: totalOutput,
	}
	if successCount > 0 {
		tokens.AvgInputPerRequest = float64(totalInput) / float64(successCount)
		tokens.AvgOutputPerRequest = float64(totalOutput) / float64(successCount)
	}

	return &Report{
		RunID:            runID,
		Config:           cfg,
		Summary:          summary,
		Latency:          latency,
		Tokens:           tokens,
		ErrorsByCategory: errorsByCategory,
		Timeline:         buildTimeline(outcomes, result.Samples),
		StartTime:        result.Start,
		EndTime:          result.End,
	}
}

// buildTimeline derives per-second buckets from the sampler's length
// snapshots. Each bucket covers the outcomes in its snapshot issued after
// the previous bucket's timestamp; the first bucket takes everything up to
// its own snapshot.
func buildTimeline(outcomes []runner.Outcome, samples []runner.TimelineSample) []TimelineBucket {
	buckets := make([]TimelineBucket, 0, len(samples))
	for i, sample := range samples {
		count := sample.Count
		if count > len(outcomes) {
			count = len(outcomes)
		}
		window := outcomes[:count]

		var since int64
		if i > 0 {
			since = samples[i-1].At.UnixMilli()
		}

		var requests, failures int
		var successLatencySum float64
		var successes int
		for _, o := range window {
			if i > 0 && o.IssuedAt <= since {
				continue
			}
			requests++
			if o.Success {
				successes++
				successLatencySum += float64(o.LatencyMs)
			} else {
				failures++
			}
		}

		bucket := TimelineBucket{
			BucketIndex:  i,
			RequestCount: requests,
		}
		if successes > 0 {
			bucket.AvgLatencyMs = successLatencySum / float64(successes)
		}
		if requests > 0 {
			bucket.ErrorRatePercent = round2(100 * float64(failures) / float64(requests))
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

// percentile implements the nearest-rank method over an ascending-sorted
// sample: no interpolation, always an observed value.
func percentile(p float64, sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation (divide by N, not N-1).
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
