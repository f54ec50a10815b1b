package runner

// ProgressEvent is an advisory snapshot of a running load test. Delivery is
// best-effort; events are dropped rather than ever blocking issuance.
type ProgressEvent struct {
	ElapsedSeconds float64
	Issued         int64
	Completed      int64
	Success        int64
	Errors         int64
	ObservedRps    float64
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	Publish(ProgressEvent)
}

// progressForwarder decouples the issuance loop from the sink: the scheduler
// does a non-blocking send into the buffered channel and a dedicated
// goroutine forwards to the sink at its own pace.
type progressForwarder struct {
	events chan ProgressEvent
	done   chan struct{}
}

func newProgressForwarder(sink ProgressSink) *progressForwarder {
	f := &progressForwarder{
		events: make(chan ProgressEvent, 16),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(f.done)
		for event := range f.events {
			sink.Publish(event)
		}
	}()
	return f
}

// offer enqueues an event, dropping it if the forwarder is backed up.
func (f *progressForwarder) offer(event ProgressEvent) {
	if f == nil {
		return
	}
	select {
	case f.events <- event:
	default:
	}
}

// close stops the forwarder after the queued events are delivered.
func (f *progressForwarder) close() {
	if f == nil {
		return
	}
	close(f.events)
	<-f.done
}
