package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/tokenstorm/tokenstorm/internal/runner"
)

// LiveCollector tracks in-progress stats for the dashboard and progress
// line. It is fed from request completion goroutines and read from the UI
// tick loop; the final report is built from the frozen result set instead,
// so histogram quantization here never leaks into the report.
type LiveCollector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	successes    int64
	failures     int64
	inputTokens  int64
	outputTokens int64
	start        time.Time
}

// LiveStats is a cheap copy of the collector state for display.
type LiveStats struct {
	Total        int64
	Successes    int64
	Failures     int64
	P50Ms        float64
	P90Ms        float64
	P99Ms        float64
	MaxMs        float64
	Rps          float64
	TokensPerSec float64
	Elapsed      time.Duration
}

// NewLiveCollector tracks latencies from 1ms up to 10 minutes with 3
// significant figures.
func NewLiveCollector() *LiveCollector {
	return &LiveCollector{
		hist:  hdrhistogram.New(1, int64(10*time.Minute/time.Millisecond), 3),
		start: time.Now(),
	}
}

// Start marks the actual beginning of issuance for elapsed/RPS math.
func (c *LiveCollector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Record folds one settled outcome into the live view.
func (c *LiveCollector) Record(o runner.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := o.LatencyMs
	if v < c.hist.LowestTrackableValue() {
		v = c.hist.LowestTrackableValue()
	}
	if v > c.hist.HighestTrackableValue() {
		v = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(v)

	if o.Success {
		c.successes++
		c.inputTokens += int64(o.InputTokens)
		c.outputTokens += int64(o.OutputTokens)
	} else {
		c.failures++
	}
}

// Snapshot returns the current live stats.
func (c *LiveCollector) Snapshot() LiveStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.start)
	stats := LiveStats{
		Total:     c.successes + c.failures,
		Successes: c.successes,
		Failures:  c.failures,
		Elapsed:   elapsed,
	}
	if c.hist.TotalCount() > 0 {
		stats.P50Ms = float64(c.hist.ValueAtQuantile(50))
		stats.P90Ms = float64(c.hist.ValueAtQuantile(90))
		stats.P99Ms = float64(c.hist.ValueAtQuantile(99))
		stats.MaxMs = float64(c.hist.Max())
	}
	if seconds := elapsed.Seconds(); seconds > 0 {
		stats.Rps = float64(stats.Total) / seconds
		stats.TokensPerSec = float64(c.outputTokens) / seconds
	}
	return stats
}
