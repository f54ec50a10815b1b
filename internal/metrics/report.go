// Package metrics turns a finished outcome list into the run report. The
// report's JSON field names are a wire contract consumed by external
// formatters and must round-trip losslessly.
package metrics

import (
	"time"
)

// Report is the single artifact of a completed run.
type Report struct {
	RunID            string           `json:"runId"`
	Config           ConfigSnapshot   `json:"config"`
	Summary          Summary          `json:"summary"`
	Latency          LatencyStats     `json:"latency"`
	Tokens           TokenStats       `json:"tokens"`
	ErrorsByCategory map[string]int   `json:"errorsByCategory"`
	Timeline         []TimelineBucket `json:"timeline"`
	StartTime        time.Time        `json:"startTime"`
	EndTime          time.Time        `json:"endTime"`
}

// ConfigSnapshot freezes the run parameters inside the report.
type ConfigSnapshot struct {
	Target          string  `json:"target"`
	Model           string  `json:"model"`
	TargetRps       float64 `json:"targetRps"`
	DurationSeconds float64 `json:"durationSeconds"`
	PromptCount     int     `json:"promptCount"`
	ArrivalModel    string  `json:"arrivalModel"`
}

// Summary counts requests and derives throughput. TotalRequests can be lower
// than IssuedCount when the drain deadline abandoned stragglers.
type Summary struct {
	TotalRequests         int     `json:"totalRequests"`
	SuccessCount          int     `json:"successCount"`
	ErrorCount            int     `json:"errorCount"`
	ErrorRatePercent      float64 `json:"errorRatePercent"`
	ActualDurationSeconds float64 `json:"actualDurationSeconds"`
	ActualRps             float64 `json:"actualRps"`
	IssuedCount           int64   `json:"issuedCount"`
	DrainTimedOut         bool    `json:"drainTimedOut"`
}

// LatencyStats are in milliseconds. The percentile fields are computed over
// successful requests only; median, mean, and stdDev cover the full outcome
// list including failures.
type LatencyStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	StdDev float64 `json:"stdDev"`
}

// TokenStats sum usage over successful requests only.
type TokenStats struct {
	TotalInput          int64   `json:"totalInput"`
	TotalOutput         int64   `json:"totalOutput"`
	AvgInputPerRequest  float64 `json:"avgInputPerRequest"`
	AvgOutputPerRequest float64 `json:"avgOutputPerRequest"`
}

// TimelineBucket is one whole second of the run.
type TimelineBucket struct {
	BucketIndex      int     `json:"bucketIndex"`
	RequestCount     int     `json:"requestCount"`
	AvgLatencyMs     float64 `json:"avgLatencyMs"`
	ErrorRatePercent float64 `json:"errorRatePercent"`
}
