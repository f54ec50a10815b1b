// Package runner contains the open-loop load core: a scheduler that issues
// generation requests on a fixed cadence regardless of completion latency,
// an executor that settles each request into an outcome, and the drain
// logic that bounds how long finished runs wait for stragglers.
package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/tokenstorm/tokenstorm/internal/feeder"
)

// DefaultDrainTimeout bounds the wait for in-flight requests after the
// issuance window closes.
const DefaultDrainTimeout = 30 * time.Second

// Invoker executes one logical request. Implementations must not block
// issuance: the scheduler calls Execute from a fresh goroutine per request.
type Invoker interface {
	Execute(ctx context.Context, sequence int, prompt feeder.Prompt) Outcome
}

// Options configure the Scheduler.
type Options struct {
	Rate         float64       // target requests per second (> 0)
	Duration     time.Duration // issuance window (> 0)
	Prompts      *feeder.Set   // cycled by sequence index (non-empty)
	Invoker      Invoker       // request executor (required)
	Sink         ProgressSink  // optional best-effort progress consumer
	DrainTimeout time.Duration // 0 means DefaultDrainTimeout
	Arrival      ArrivalModel  // uniform (default) or poisson
	Seed         int64         // poisson seed (0 = time-based)

	// Test injection points.
	PoissonSampler func() float64
	LimiterFactory func(rps float64) *rate.Limiter

	// OnOutcome is called from the completing goroutine for every settled
	// request, including those that settle after the drain deadline. Live
	// metric collectors hook in here.
	OnOutcome func(Outcome)
}

func (o *Options) normalize() {
	if o.DrainTimeout == 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
	if o.Arrival == "" {
		o.Arrival = ArrivalModelUniform
	}
}

func (o *Options) validate() error {
	if o.Prompts.Len() == 0 {
		return errors.New("prompt set must not be empty")
	}
	if o.Rate <= 0 {
		return errors.New("rate must be > 0")
	}
	if o.Duration <= 0 {
		return errors.New("duration must be > 0")
	}
	if o.Invoker == nil {
		return errors.New("invoker is required")
	}
	return nil
}

// Result is the frozen product of one scheduling window plus drain. Outcomes
// holds only requests that settled before the drain deadline; Issued may be
// larger.
type Result struct {
	Outcomes      []Outcome
	Samples       []TimelineSample
	Start         time.Time
	End           time.Time
	Issued        int64
	DrainTimedOut bool
}

// Scheduler drives open-loop issuance: one request per arrival slot, never
// waiting on earlier requests. In-flight concurrency is unbounded and grows
// with rate × observed latency; that is the point of a load generator, but
// it makes high-rate runs against slow providers a resource-exhaustion risk.
type Scheduler struct {
	opt     Options
	arrival arrivalController
	stopped atomic.Bool

	completed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// New validates preconditions and builds a Scheduler. A config that cannot
// run (empty prompts, non-positive rate or duration) fails here, before any
// request is issued.
func New(opt Options) (*Scheduler, error) {
	opt.normalize()
	if err := opt.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{opt: opt, arrival: newArrivalController(opt)}, nil
}

// Stop ends issuance early. Requests already in flight still settle during
// the drain phase.
func (s *Scheduler) Stop() {
	s.stopped.Store(true)
}

// Run issues requests until the duration elapses, then drains in-flight work
// up to the drain deadline and freezes the outcome list. Outcomes settling
// after the deadline are silently dropped from the result.
func (s *Scheduler) Run(ctx context.Context) Result {
	start := time.Now()
	deadline := start.Add(s.opt.Duration)
	results := NewResultSet()

	sampler := newTimelineSampler(results, start)
	samplerStop := make(chan struct{})
	go sampler.run(samplerStop)

	var forwarder *progressForwarder
	if s.opt.Sink != nil {
		forwarder = newProgressForwarder(s.opt.Sink)
	}

	stride := progressStride(s.opt.Rate)
	var wg sync.WaitGroup
	var issued int64

	for !s.stopped.Load() && ctx.Err() == nil && time.Now().Before(deadline) {
		if err := s.arrival.Wait(ctx); err != nil {
			break
		}
		now := time.Now()
		if !now.Before(deadline) {
			break
		}

		sequence := int(issued)
		prompt := s.opt.Prompts.At(sequence)
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := s.opt.Invoker.Execute(ctx, sequence, prompt)
			results.Append(outcome)
			s.completed.Add(1)
			if outcome.Success {
				s.succeeded.Add(1)
			} else {
				s.failed.Add(1)
			}
			if s.opt.OnOutcome != nil {
				s.opt.OnOutcome(outcome)
			}
		}()
		issued++

		if issued%stride == 0 {
			forwarder.offer(s.progressEvent(start, issued))
		}
	}
	s.stopped.Store(true)

	close(samplerStop)
	samples := sampler.wait()

	timedOut := s.drain(&wg)
	outcomes := results.All()
	forwarder.close()

	return Result{
		Outcomes:      outcomes,
		Samples:       samples,
		Start:         start,
		End:           time.Now(),
		Issued:        issued,
		DrainTimedOut: timedOut,
	}
}

// drain joins all in-flight request goroutines under a single bounded
// deadline, so whatever settled by the deadline is counted and the rest is
// abandoned as a group.
func (s *Scheduler) drain(wg *sync.WaitGroup) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.opt.DrainTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) progressEvent(start time.Time, issued int64) ProgressEvent {
	elapsed := time.Since(start).Seconds()
	completed := s.completed.Load()
	observed := 0.0
	if elapsed > 0 {
		observed = float64(completed) / elapsed
	}
	return ProgressEvent{
		ElapsedSeconds: elapsed,
		Issued:         issued,
		Completed:      completed,
		Success:        s.succeeded.Load(),
		Errors:         s.failed.Load(),
		ObservedRps:    observed,
	}
}

// progressStride is roughly one event per 100ms of issuance.
func progressStride(rps float64) int64 {
	stride := int64(rps / 10)
	if stride < 1 {
		stride = 1
	}
	return stride
}
