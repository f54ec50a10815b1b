package runner

import (
	"sync"
)

// Outcome is the terminal result of one attempted generation request.
// Immutable once appended to a ResultSet.
type Outcome struct {
	Sequence     int    `json:"sequence"`
	Success      bool   `json:"success"`
	LatencyMs    int64  `json:"latency_ms"`
	Error        string `json:"error,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	IssuedAt     int64  `json:"issued_at_ms"`
}

// ResultSet is an append-only outcome list. Completion callbacks append;
// readers take length snapshots and only ever observe a stable prefix.
// Append order reflects completion order, never issuance order — consumers
// must order by Sequence or IssuedAt.
type ResultSet struct {
	mu  sync.Mutex
	buf []Outcome
}

// NewResultSet creates an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Append adds one settled outcome.
func (s *ResultSet) Append(o Outcome) {
	s.mu.Lock()
	s.buf = append(s.buf, o)
	s.mu.Unlock()
}

// Len returns the number of settled outcomes at this instant.
func (s *ResultSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Snapshot returns the first n outcomes. Appended entries are never mutated,
// so the returned prefix stays valid while writers keep appending.
func (s *ResultSet) Snapshot(n int) []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.buf) {
		n = len(s.buf)
	}
	if n < 0 {
		n = 0
	}
	return s.buf[:n:n]
}

// All snapshots the full set as of now.
func (s *ResultSet) All() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf[:len(s.buf):len(s.buf)]
}
