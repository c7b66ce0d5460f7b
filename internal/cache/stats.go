package cache

import (
	"sync"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
)

// Stats aggregates pipeline counters for the statistics egress. A rejected
// opportunity counts toward both "found" and "rejected"; "found" is the
// superset.
type Stats struct {
	mu sync.Mutex

	ticksProcessed int64
	batchesFolded  int64
	batchesSkipped int64

	found    int64
	approved int64
	rejected int64
	byType   map[domain.OpportunityType]int64

	anomalies  int64
	byAnomaly  map[domain.AnomalyKind]int64
	riskEvents int64

	bufferHighWater int
	backpressure    bool
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	TicksProcessed int64
	BatchesFolded  int64
	BatchesSkipped int64

	OpportunitiesFound    int64
	OpportunitiesApproved int64
	OpportunitiesRejected int64
	FoundByType           map[domain.OpportunityType]int64

	Anomalies     int64
	AnomalyCounts map[domain.AnomalyKind]int64
	RiskEvents    int64

	BufferHighWater int
	Backpressure    bool
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{
		byType:    make(map[domain.OpportunityType]int64),
		byAnomaly: make(map[domain.AnomalyKind]int64),
	}
}

// BatchResult is one batch's contribution, folded in a single call so a
// reader never observes a partially-folded batch.
type BatchResult struct {
	Ticks     int
	Anomalies []domain.AnomalyFinding
	Found     []domain.ArbitrageOpportunity
	Approved  int
	Rejected  int
}

// FoldBatch applies one batch's results atomically.
func (s *Stats) FoldBatch(res BatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchesFolded++
	s.ticksProcessed += int64(res.Ticks)
	s.found += int64(len(res.Found))
	for _, opp := range res.Found {
		s.byType[opp.Type]++
	}
	s.approved += int64(res.Approved)
	s.rejected += int64(res.Rejected)
	s.riskEvents += int64(res.Rejected)
	s.anomalies += int64(len(res.Anomalies))
	for _, f := range res.Anomalies {
		s.byAnomaly[f.Kind]++
	}
}

// NoteSkippedBatch records a batch whose results were abandoned by the
// host's collection deadline. A skipped batch contributes nothing else.
func (s *Stats) NoteSkippedBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchesSkipped++
}

// ObserveBufferDepth tracks the ingest buffer high-water mark.
func (s *Stats) ObserveBufferDepth(depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if depth > s.bufferHighWater {
		s.bufferHighWater = depth
	}
}

// SetBackpressure records whether batches are queueing faster than the
// worker pool drains them.
func (s *Stats) SetBackpressure(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backpressure = active
}

// Snapshot returns a copy of all counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	byType := make(map[domain.OpportunityType]int64, len(s.byType))
	for k, v := range s.byType {
		byType[k] = v
	}
	byAnomaly := make(map[domain.AnomalyKind]int64, len(s.byAnomaly))
	for k, v := range s.byAnomaly {
		byAnomaly[k] = v
	}
	return StatsSnapshot{
		TicksProcessed:        s.ticksProcessed,
		BatchesFolded:         s.batchesFolded,
		BatchesSkipped:        s.batchesSkipped,
		OpportunitiesFound:    s.found,
		OpportunitiesApproved: s.approved,
		OpportunitiesRejected: s.rejected,
		FoundByType:           byType,
		Anomalies:             s.anomalies,
		AnomalyCounts:         byAnomaly,
		RiskEvents:            s.riskEvents,
		BufferHighWater:       s.bufferHighWater,
		Backpressure:          s.backpressure,
	}
}
