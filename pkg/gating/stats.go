package gating

import (
	"sync"
	"sync/atomic"
)

// StatsSnapshot is a read-only copy of the running counters.
type StatsSnapshot struct {
	Total       int64            `json:"total"`
	OracleCalls int64            `json:"oracle_calls"`
	ByReason    map[Reason]int64 `json:"by_reason"`

	// CallRate is OracleCalls / Total, 0 when no decisions were recorded.
	CallRate float64 `json:"call_rate"`
}

// StatsAggregator accumulates monotonic per-reason counters. Increments are
// atomic so concurrent decide() callers never lose counts; reset happens only
// through an explicit operator action.
type StatsAggregator struct {
	mu       sync.RWMutex
	byReason map[Reason]*atomic.Int64

	total       atomic.Int64
	oracleCalls atomic.Int64
}

// NewStatsAggregator returns an empty aggregator.
func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{byReason: make(map[Reason]*atomic.Int64)}
}

// Record counts one decision.
func (s *StatsAggregator) Record(d *Decision) {
	s.counter(d.Reason).Add(1)
	s.total.Add(1)
	if d.CallOracle {
		s.oracleCalls.Add(1)
	}
}

// Snapshot copies the current counters. Under heavy concurrency the snapshot
// is approximate but every counter in it is a value that actually occurred.
func (s *StatsAggregator) Snapshot() StatsSnapshot {
	s.mu.RLock()
	byReason := make(map[Reason]int64, len(s.byReason))
	for reason, counter := range s.byReason {
		byReason[reason] = counter.Load()
	}
	s.mu.RUnlock()

	total := s.total.Load()
	calls := s.oracleCalls.Load()
	rate := 0.0
	if total > 0 {
		rate = float64(calls) / float64(total)
	}
	return StatsSnapshot{
		Total:       total,
		OracleCalls: calls,
		ByReason:    byReason,
		CallRate:    rate,
	}
}

// Reset zeroes all counters.
func (s *StatsAggregator) Reset() {
	s.mu.Lock()
	s.byReason = make(map[Reason]*atomic.Int64)
	s.mu.Unlock()
	s.total.Store(0)
	s.oracleCalls.Store(0)
}

func (s *StatsAggregator) counter(reason Reason) *atomic.Int64 {
	s.mu.RLock()
	c, ok := s.byReason[reason]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byReason[reason]; ok {
		return c
	}
	c = &atomic.Int64{}
	s.byReason[reason] = c
	return c
}
