// Package engine ties the detector, finder, and risk manager together: it
// buffers incoming ticks, drains them into fixed-size batches, runs each
// batch through the pipeline on a bounded worker pool, and folds results
// into the cache and statistics.
package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ming198921/taoli5.1-sub000/internal/anomaly"
	"github.com/ming198921/taoli5.1-sub000/internal/cache"
	"github.com/ming198921/taoli5.1-sub000/internal/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/obs"
	"github.com/ming198921/taoli5.1-sub000/internal/opportunity"
	"github.com/ming198921/taoli5.1-sub000/internal/risk"
)

// Config holds the scheduler tunables.
type Config struct {
	BatchSize     int           // ticks per dispatched batch
	Workers       int           // worker pool size; 0 scales with cores
	BatchDeadline time.Duration // 0 = no deadline; late batches skip their fold
}

// Defaults returns the standard scheduler parameters.
func Defaults() Config {
	return Config{
		BatchSize: 64,
		Workers:   runtime.NumCPU(),
	}
}

// Scheduler is the concurrency core. Producers call Submit; batches run on
// the pool; approved opportunities land in the cache. The ingest buffer
// lock and the fold lock are separate so ingestion never serializes behind
// processing.
type Scheduler struct {
	cfg      Config
	detector *anomaly.Detector
	finder   *opportunity.Finder
	riskMgr  *risk.Manager
	cache    *cache.OpportunityCache
	stats    *cache.Stats
	metrics  *obs.Metrics
	logger   *slog.Logger

	// publish, when set, receives each approved opportunity after the
	// fold. It runs outside every lock.
	publish func(domain.ArbitrageOpportunity)

	bufMu  sync.Mutex
	buffer []domain.OrderBookSnapshot
	closed bool

	foldMu sync.Mutex

	workers  *semaphore.Weighted
	inFlight atomic.Int64
	wg       sync.WaitGroup
}

// NewScheduler wires the pipeline stages together. Metrics may be nil.
func NewScheduler(
	cfg Config,
	detector *anomaly.Detector,
	finder *opportunity.Finder,
	riskMgr *risk.Manager,
	oppCache *cache.OpportunityCache,
	stats *cache.Stats,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = Defaults().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Scheduler{
		cfg:      cfg,
		detector: detector,
		finder:   finder,
		riskMgr:  riskMgr,
		cache:    oppCache,
		stats:    stats,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "batch_scheduler")),
		buffer:   make([]domain.OrderBookSnapshot, 0, cfg.BatchSize),
		workers:  semaphore.NewWeighted(int64(cfg.Workers)),
	}
}

// SetPublisher installs the optional egress hook for approved
// opportunities. Call before the first Submit.
func (s *Scheduler) SetPublisher(publish func(domain.ArbitrageOpportunity)) {
	s.publish = publish
}

// Submit appends one tick to the ingest buffer. When the buffer reaches
// the batch size it is atomically swapped out and handed to the pool, so
// no tick is ever both buffered and dispatched, and none is dropped.
// Submit never blocks on processing.
func (s *Scheduler) Submit(snap domain.OrderBookSnapshot) error {
	s.bufMu.Lock()
	if s.closed {
		s.bufMu.Unlock()
		return domain.ErrSchedulerClosed
	}
	s.buffer = append(s.buffer, snap)
	highWater := len(s.buffer)
	depth := highWater
	var batch []domain.OrderBookSnapshot
	if depth >= s.cfg.BatchSize {
		batch = s.buffer
		s.buffer = make([]domain.OrderBookSnapshot, 0, s.cfg.BatchSize)
		depth = 0
	}
	s.bufMu.Unlock()

	s.stats.ObserveBufferDepth(highWater)
	s.metrics.ObserveIngest(depth)
	if batch != nil {
		s.dispatch(batch)
	}
	return nil
}

// Flush hands any partially-filled buffer to the pool.
func (s *Scheduler) Flush() {
	s.bufMu.Lock()
	batch := s.buffer
	s.buffer = make([]domain.OrderBookSnapshot, 0, s.cfg.BatchSize)
	s.bufMu.Unlock()
	if len(batch) > 0 {
		s.dispatch(batch)
	}
}

// Close stops intake, flushes the remainder, and waits for in-flight
// batches to finish folding. A half-folded batch is not a defined state,
// so shutdown always drains. The context bounds the wait.
func (s *Scheduler) Close(ctx context.Context) error {
	s.bufMu.Lock()
	if s.closed {
		s.bufMu.Unlock()
		return nil
	}
	s.closed = true
	batch := s.buffer
	s.buffer = nil
	s.bufMu.Unlock()

	if len(batch) > 0 {
		s.dispatch(batch)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch hands one batch to the pool. The goroutine waits for a worker
// slot; batches beyond the pool size queue up, which is the backpressure
// condition surfaced via stats.
func (s *Scheduler) dispatch(batch []domain.OrderBookSnapshot) {
	pending := s.inFlight.Add(1)
	backpressure := pending > int64(s.cfg.Workers)
	s.stats.SetBackpressure(backpressure)
	s.metrics.ObserveBackpressure(backpressure)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			remaining := s.inFlight.Add(-1)
			stillBehind := remaining > int64(s.cfg.Workers)
			s.stats.SetBackpressure(stillBehind)
			s.metrics.ObserveBackpressure(stillBehind)
		}()
		if err := s.workers.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer s.workers.Release(1)
		s.process(batch)
	}()
}

// process runs one batch through detect -> find -> assess and folds the
// result. Ticks within the batch are independent; the fold is atomic under
// its own lock.
func (s *Scheduler) process(batch []domain.OrderBookSnapshot) {
	start := time.Now()

	var result cache.BatchResult
	result.Ticks = len(batch)

	// Pass 1: anomaly scan plus reference-price updates. A tick with a
	// critical finding is quarantined from opportunity search so bad data
	// cannot become a trade.
	eligible := batch[:0:0]
	for i := range batch {
		snap := &batch[i]
		findings := s.detector.Detect(*snap)
		result.Anomalies = append(result.Anomalies, findings...)
		for _, f := range findings {
			s.metrics.ObserveAnomaly(string(f.Kind))
		}
		if mid := snap.MidPrice(); mid > 0 {
			s.finder.SetReference(snap.Exchange, snap.Symbol, mid)
		}
		if !hasCritical(findings) {
			eligible = append(eligible, *snap)
		}
	}

	// Pass 2: opportunity search over the clean ticks.
	result.Found = s.finder.FindBatch(eligible)
	for _, opp := range result.Found {
		s.metrics.ObserveFound(string(opp.Type))
	}

	// Pass 3: risk screening.
	var approved []domain.ArbitrageOpportunity
	for _, opp := range result.Found {
		assessment := s.riskMgr.Assess(opp)
		if !assessment.Approved {
			result.Rejected++
			continue
		}
		result.Approved++
		opp.Size = assessment.MaxAllowedSize
		approved = append(approved, opp)
	}

	elapsed := time.Since(start)
	if s.cfg.BatchDeadline > 0 && elapsed > s.cfg.BatchDeadline {
		// Too late for this cycle: contribute nothing rather than fold
		// stale opportunities.
		s.stats.NoteSkippedBatch()
		s.logger.Warn("batch skipped past deadline",
			slog.Int("ticks", len(batch)),
			slog.Duration("elapsed", elapsed),
		)
		return
	}

	s.fold(result, approved)
	s.metrics.ObserveBatch(float64(elapsed.Milliseconds()), result.Approved, result.Rejected)

	if s.publish != nil {
		for _, opp := range approved {
			s.publish(opp)
		}
	}
}

// fold applies one batch's results to the shared cache and stats under the
// fold lock, all-or-nothing. Evictions are counted per insert so concurrent
// folds each report only their own.
func (s *Scheduler) fold(result cache.BatchResult, approved []domain.ArbitrageOpportunity) {
	var evicted int64
	s.foldMu.Lock()
	for _, opp := range approved {
		evicted += int64(s.cache.Insert(opp))
	}
	s.stats.FoldBatch(result)
	s.foldMu.Unlock()

	if evicted > 0 {
		s.metrics.ObserveEvictions(evicted)
	}
}

func hasCritical(findings []domain.AnomalyFinding) bool {
	for _, f := range findings {
		if f.Severity == domain.SeverityCritical {
			return true
		}
	}
	return false
}
