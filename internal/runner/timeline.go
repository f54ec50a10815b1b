package runner

import (
	"time"
)

// TimelineSample pins the result-set length at a moment in time. One sample
// is taken per whole elapsed second while issuance is active; the aggregator
// turns consecutive samples into per-second buckets.
type TimelineSample struct {
	Count int
	At    time.Time
}

const samplePollInterval = 50 * time.Millisecond

// timelineSampler watches a ResultSet and records a sample whenever a whole
// second boundary has passed (floor(elapsed) > samples taken so far).
type timelineSampler struct {
	set     *ResultSet
	start   time.Time
	samples []TimelineSample
	done    chan struct{}
}

func newTimelineSampler(set *ResultSet, start time.Time) *timelineSampler {
	return &timelineSampler{set: set, start: start, done: make(chan struct{})}
}

// run polls until stop closes. Only this goroutine writes samples; callers
// read them after wait returns.
func (t *timelineSampler) run(stop <-chan struct{}) {
	defer close(t.done)
	ticker := time.NewTicker(samplePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			elapsed := int(now.Sub(t.start).Seconds())
			for elapsed > len(t.samples) {
				t.samples = append(t.samples, TimelineSample{
					Count: t.set.Len(),
					At:    now,
				})
			}
		}
	}
}

// wait blocks until the sampler goroutine exits and returns its samples.
func (t *timelineSampler) wait() []TimelineSample {
	<-t.done
	return t.samples
}
