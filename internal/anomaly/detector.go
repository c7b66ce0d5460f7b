// Package anomaly scans order-book snapshots for market-data irregularities
// before they reach the opportunity finder. Absence of evidence is treated
// as absence of anomaly: missing or short data short-circuits the affected
// check and never fails the pipeline.
package anomaly

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/instrument"
)

const (
	defaultHistoryCapacity = 100

	// Fixed detection constants. The per-class liquidity thresholds are
	// the only tunables; everything else is part of the detection rule.
	wallTopLevels      = 10
	wallSizeRatio      = 50.0
	wideSpreadFraction = 0.10
	droughtTopLevels   = 5
	pumpMinHistory     = 10
	pumpDeltaWindow    = 5
	pumpMinSameSign    = 4
	pumpMoveFraction   = 0.05
	whaleMinLevels     = 2
	whaleSizeRatio     = 100.0
	structureMinLevels = 3
)

// Config holds the tunable parameters for the detector.
type Config struct {
	HistoryCapacity           int
	MemeLiquidityThreshold    float64
	DeFiLiquidityThreshold    float64
	DefaultLiquidityThreshold float64
}

// Defaults returns the detector configuration from the standard rule set.
func Defaults() Config {
	return Config{
		HistoryCapacity:           defaultHistoryCapacity,
		MemeLiquidityThreshold:    0.1,
		DeFiLiquidityThreshold:    1.0,
		DefaultLiquidityThreshold: 5.0,
	}
}

// Detector runs the anomaly checks against one snapshot at a time and
// maintains the per-instrument rolling mid-price history used by the
// momentum check.
type Detector struct {
	cfg        Config
	classifier *instrument.Classifier
	logger     *slog.Logger

	mu   sync.RWMutex
	hist map[string]*history
}

// NewDetector creates a detector. A nil classifier falls back to the
// default naming-convention tables.
func NewDetector(cfg Config, classifier *instrument.Classifier, logger *slog.Logger) *Detector {
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = defaultHistoryCapacity
	}
	if classifier == nil {
		classifier = instrument.NewClassifier(nil, nil, nil)
	}
	return &Detector{
		cfg:        cfg,
		classifier: classifier,
		logger:     logger.With(slog.String("component", "anomaly_detector")),
		hist:       make(map[string]*history),
	}
}

// Detect runs every check against the snapshot and returns the findings
// that fired. As a side effect it appends the snapshot's mid price to the
// instrument's rolling history. An empty bid or ask side yields a single
// complete-drought finding and skips the remaining checks.
func (d *Detector) Detect(snap domain.OrderBookSnapshot) []domain.AnomalyFinding {
	if len(snap.Bids) == 0 || len(snap.Asks) == 0 {
		return []domain.AnomalyFinding{d.finding(snap,
			domain.AnomalyCompleteDrought,
			domain.SeverityCritical,
			"complete liquidity drought: one or both book sides are empty",
			1.0,
			domain.ActionSuspendAllTrading,
		)}
	}

	points := d.record(snap)

	var findings []domain.AnomalyFinding
	findings = append(findings, d.checkOrderbookManipulation(snap)...)
	if f, ok := d.checkLiquidityDrought(snap); ok {
		findings = append(findings, f)
	}
	if f, ok := d.checkPriceManipulation(snap, points); ok {
		findings = append(findings, f)
	}
	if f, ok := d.checkWhaleActivity(snap); ok {
		findings = append(findings, f)
	}
	if f, ok := d.checkStructure(snap); ok {
		findings = append(findings, f)
	}

	for _, f := range findings {
		d.logger.Debug("anomaly detected",
			slog.String("symbol", snap.Symbol),
			slog.String("exchange", snap.Exchange),
			slog.String("kind", string(f.Kind)),
			slog.String("severity", string(f.Severity)),
			slog.Float64("confidence", f.Confidence),
		)
	}
	return findings
}

// HistoryLen returns the number of recorded points for an instrument.
func (d *Detector) HistoryLen(symbol string) int {
	d.mu.RLock()
	h, ok := d.hist[symbol]
	d.mu.RUnlock()
	if !ok {
		return 0
	}
	return h.len()
}

// record appends the snapshot mid to the instrument history and returns a
// chronological copy of the points.
func (d *Detector) record(snap domain.OrderBookSnapshot) []domain.PricePoint {
	mid := snap.MidPrice()
	if mid <= 0 {
		return nil
	}
	d.mu.RLock()
	h, ok := d.hist[snap.Symbol]
	d.mu.RUnlock()
	if !ok {
		d.mu.Lock()
		h, ok = d.hist[snap.Symbol]
		if !ok {
			h = newHistory(d.cfg.HistoryCapacity)
			d.hist[snap.Symbol] = h
		}
		d.mu.Unlock()
	}
	return h.append(snap.Timestamp, mid)
}

// checkOrderbookManipulation flags a wall (one resting order dwarfing its
// side's top levels) and an abnormally wide spread.
func (d *Detector) checkOrderbookManipulation(snap domain.OrderBookSnapshot) []domain.AnomalyFinding {
	var findings []domain.AnomalyFinding
	for _, side := range []struct {
		name   string
		levels []domain.PriceLevel
	}{{"bid", snap.Bids}, {"ask", snap.Asks}} {
		max, mean, n := sizeStats(side.levels, wallTopLevels)
		if n < 2 || mean <= 0 {
			continue
		}
		if max > wallSizeRatio*mean {
			findings = append(findings, d.finding(snap,
				domain.AnomalyOrderbookManipulation,
				domain.SeverityCritical,
				fmt.Sprintf("large-wall spoofing on %s side: max size %.4f vs mean %.4f", side.name, max, mean),
				0.95,
				domain.ActionHaltTrading,
			))
		}
	}
	if spread := snap.SpreadFraction(); spread > wideSpreadFraction {
		findings = append(findings, d.finding(snap,
			domain.AnomalyOrderbookManipulation,
			domain.SeverityHigh,
			fmt.Sprintf("abnormally wide spread: %.2f%% of best bid", spread*100),
			0.9,
			domain.ActionHaltTrading,
		))
	}
	return findings
}

// checkLiquidityDrought compares top-5 depth against the class threshold.
func (d *Detector) checkLiquidityDrought(snap domain.OrderBookSnapshot) (domain.AnomalyFinding, bool) {
	depth := sumSizes(snap.Bids, droughtTopLevels) + sumSizes(snap.Asks, droughtTopLevels)
	threshold := d.liquidityThreshold(snap.Symbol)
	if depth >= threshold {
		return domain.AnomalyFinding{}, false
	}
	return d.finding(snap,
		domain.AnomalyLiquidityDrought,
		domain.SeverityHigh,
		fmt.Sprintf("top-%d depth %.4f below class threshold %.4f", droughtTopLevels, depth, threshold),
		0.9,
		domain.ActionReducePositionSize,
	), true
}

func (d *Detector) liquidityThreshold(symbol string) float64 {
	switch d.classifier.Class(symbol) {
	case instrument.ClassMeme:
		return d.cfg.MemeLiquidityThreshold
	case instrument.ClassDeFi:
		return d.cfg.DeFiLiquidityThreshold
	default:
		return d.cfg.DefaultLiquidityThreshold
	}
}

// checkPriceManipulation looks for sustained one-directional movement over
// the recent history. Consecutive equal mids are compressed first so the
// check is a pure function of the price path, not of how many ticks
// repeated the same price.
func (d *Detector) checkPriceManipulation(snap domain.OrderBookSnapshot, points []domain.PricePoint) (domain.AnomalyFinding, bool) {
	path := compressEqualMids(points)
	if len(path) < pumpMinHistory {
		return domain.AnomalyFinding{}, false
	}
	path = path[len(path)-pumpMinHistory:]

	deltas := make([]float64, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		deltas = append(deltas, path[i].Mid-path[i-1].Mid)
	}
	if len(deltas) < pumpDeltaWindow {
		return domain.AnomalyFinding{}, false
	}
	window := deltas[len(deltas)-pumpDeltaWindow:]

	var pos, neg int
	var absSum float64
	for _, delta := range window {
		if delta > 0 {
			pos++
		} else if delta < 0 {
			neg++
		}
		if delta < 0 {
			absSum -= delta
		} else {
			absSum += delta
		}
	}
	if pos < pumpMinSameSign && neg < pumpMinSameSign {
		return domain.AnomalyFinding{}, false
	}
	ref := path[len(path)-pumpDeltaWindow-1].Mid
	if ref <= 0 || absSum <= pumpMoveFraction*ref {
		return domain.AnomalyFinding{}, false
	}
	direction := "upward"
	if neg >= pumpMinSameSign {
		direction = "downward"
	}
	return d.finding(snap,
		domain.AnomalyPriceManipulation,
		domain.SeverityHigh,
		fmt.Sprintf("directional pumping: %s move of %.2f%% over last %d changes", direction, absSum/ref*100, pumpDeltaWindow),
		0.85,
		domain.ActionMonitorClosely,
	), true
}

// checkWhaleActivity pools every level on both sides and flags a single
// order dominating the rest of the pool. The dominant order is excluded
// from the mean it is compared against.
func (d *Detector) checkWhaleActivity(snap domain.OrderBookSnapshot) (domain.AnomalyFinding, bool) {
	n := len(snap.Bids) + len(snap.Asks)
	if n < whaleMinLevels {
		return domain.AnomalyFinding{}, false
	}
	var max, sum float64
	for _, l := range snap.Bids {
		sum += l.Size
		if l.Size > max {
			max = l.Size
		}
	}
	for _, l := range snap.Asks {
		sum += l.Size
		if l.Size > max {
			max = l.Size
		}
	}
	mean := (sum - max) / float64(n-1)
	if mean <= 0 || max <= whaleSizeRatio*mean {
		return domain.AnomalyFinding{}, false
	}
	return d.finding(snap,
		domain.AnomalyWhaleActivity,
		domain.SeverityMedium,
		fmt.Sprintf("whale order: max size %.4f is %.0fx the mean %.4f", max, max/mean, mean),
		0.8,
		domain.ActionAdjustStrategy,
	), true
}

// checkStructure verifies level ordering: bids non-increasing, asks
// non-decreasing. Needs at least three levels per side to be meaningful.
func (d *Detector) checkStructure(snap domain.OrderBookSnapshot) (domain.AnomalyFinding, bool) {
	if len(snap.Bids) < structureMinLevels || len(snap.Asks) < structureMinLevels {
		return domain.AnomalyFinding{}, false
	}
	for i := 1; i < len(snap.Bids); i++ {
		if snap.Bids[i].Price > snap.Bids[i-1].Price {
			return d.structureFinding(snap, fmt.Sprintf("bid prices not non-increasing at level %d", i)), true
		}
	}
	for i := 1; i < len(snap.Asks); i++ {
		if snap.Asks[i].Price < snap.Asks[i-1].Price {
			return d.structureFinding(snap, fmt.Sprintf("ask prices not non-decreasing at level %d", i)), true
		}
	}
	return domain.AnomalyFinding{}, false
}

func (d *Detector) structureFinding(snap domain.OrderBookSnapshot, desc string) domain.AnomalyFinding {
	return d.finding(snap,
		domain.AnomalyStructure,
		domain.SeverityCritical,
		desc,
		1.0,
		domain.ActionHaltTrading,
	)
}

func (d *Detector) finding(snap domain.OrderBookSnapshot, kind domain.AnomalyKind, sev domain.AnomalySeverity, desc string, confidence float64, action domain.AnomalyAction) domain.AnomalyFinding {
	return domain.AnomalyFinding{
		Kind:        kind,
		Severity:    sev,
		Description: desc,
		Confidence:  confidence,
		Action:      action,
		Exchange:    snap.Exchange,
		Symbol:      snap.Symbol,
		DetectedAt:  snap.Timestamp,
	}
}

// sizeStats returns the max size over the first n levels of one side and
// the mean size of the remaining levels. The max is excluded from its own
// mean so a single dominating order can actually trip the ratio tests.
func sizeStats(levels []domain.PriceLevel, n int) (max, mean float64, count int) {
	if len(levels) < n {
		n = len(levels)
	}
	if n < 2 {
		return 0, 0, n
	}
	var sum float64
	for _, l := range levels[:n] {
		sum += l.Size
		if l.Size > max {
			max = l.Size
		}
	}
	return max, (sum - max) / float64(n-1), n
}

func sumSizes(levels []domain.PriceLevel, n int) float64 {
	if len(levels) < n {
		n = len(levels)
	}
	var sum float64
	for _, l := range levels[:n] {
		sum += l.Size
	}
	return sum
}

func compressEqualMids(points []domain.PricePoint) []domain.PricePoint {
	if len(points) == 0 {
		return nil
	}
	out := make([]domain.PricePoint, 0, len(points))
	out = append(out, points[0])
	for _, p := range points[1:] {
		if p.Mid != out[len(out)-1].Mid {
			out = append(out, p)
		}
	}
	return out
}
