// Package opportunity searches snapshots for triangular and inter-exchange
// arbitrage. Profit fractions are net of fees and non-negative by
// construction; a path that cannot clear its floor is dropped, never
// clamped.
package opportunity

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/instrument"
	"github.com/ming198921/taoli5.1-sub000/internal/opportunity/batch"
)

// Deterministic confidence levels per opportunity shape. Triangular cycles
// carry three legs of execution uncertainty, inter-exchange carries two.
const (
	triangularConfidence    = 0.75
	interExchangeConfidence = 0.85
)

// Config holds the tunable parameters for the finder.
type Config struct {
	MinTriangularProfit    float64 // net profit floor for 3-leg cycles
	MinInterExchangeDiff   float64 // gross relative diff floor across venues
	FeeRate                float64 // per-leg fee fraction
	InterExchangeRetention float64 // share of gross edge kept after haircut
	DefaultSize            float64 // proposed size when the book gives none
	MaxSize                float64 // hard cap on proposed size
}

// Defaults returns the standard finder parameters.
func Defaults() Config {
	return Config{
		MinTriangularProfit:    0.001,
		MinInterExchangeDiff:   0.005,
		FeeRate:                0.001,
		InterExchangeRetention: 0.8,
		DefaultSize:            1.0,
		MaxSize:                100.0,
	}
}

// Finder detects arbitrage candidates from snapshots plus the static pair
// registry and a reference-price table fed by the scheduler.
type Finder struct {
	cfg      Config
	registry *instrument.Registry
	refs     *referenceTable
	logger   *slog.Logger
}

// NewFinder creates a finder over the given pair registry.
func NewFinder(cfg Config, registry *instrument.Registry, logger *slog.Logger) *Finder {
	if cfg.InterExchangeRetention <= 0 || cfg.InterExchangeRetention > 1 {
		cfg.InterExchangeRetention = 0.8
	}
	return &Finder{
		cfg:      cfg,
		registry: registry,
		refs:     newReferenceTable(),
		logger:   logger.With(slog.String("component", "opportunity_finder")),
	}
}

// SetReference records the last observed mid for an exchange+symbol. The
// scheduler calls this for every passing tick; it is what the
// inter-exchange comparison and triangular leg pricing read from.
func (f *Finder) SetReference(exchange, symbol string, mid float64) {
	f.refs.set(exchange, symbol, mid)
}

// Find returns the best candidate for one snapshot: the first qualifying
// triangular cycle, otherwise the widest qualifying inter-exchange gap.
// The second return is false when the snapshot yields nothing.
func (f *Finder) Find(snap domain.OrderBookSnapshot) (domain.ArbitrageOpportunity, bool) {
	if opp, ok := f.findTriangular(snap); ok {
		return opp, true
	}
	return f.findInterExchange(snap)
}

// FindBatch runs detection over a whole batch with the same per-snapshot
// contract as Find: at most one opportunity per snapshot, triangular
// first, otherwise the widest qualifying inter-exchange gap. The
// cross-venue screening is folded into fixed-point (buy, sell) pairs and
// run through the vector kernel in PreferredSpan chunks.
func (f *Finder) FindBatch(snaps []domain.OrderBookSnapshot) []domain.ArbitrageOpportunity {
	best := make([]domain.ArbitrageOpportunity, len(snaps))
	found := make([]bool, len(snaps))
	for i := range snaps {
		if opp, ok := f.findTriangular(snaps[i]); ok {
			best[i], found[i] = opp, true
		}
	}

	type candidate struct {
		idx     int
		counter string
		buy     float64
	}
	var (
		cands     []candidate
		buyTicks  []int64
		sellTicks []int64
	)
	for i := range snaps {
		if found[i] {
			continue
		}
		snap := &snaps[i]
		mid := snap.MidPrice()
		if mid <= 0 {
			continue
		}
		if _, _, ok := instrument.SplitSymbol(snap.Symbol); !ok {
			continue
		}
		for _, counter := range sortedKeys(f.refs.others(snap.Exchange, snap.Symbol)) {
			ref, _ := f.refs.get(counter, snap.Symbol)
			buy, sell := mid, ref
			if ref < mid {
				buy, sell = ref, mid
			}
			cands = append(cands, candidate{idx: i, counter: counter, buy: buy})
			buyTicks = append(buyTicks, batch.ToFixed(buy))
			sellTicks = append(sellTicks, batch.ToFixed(sell))
		}
	}

	var profits []int64
	for off := 0; off < len(cands); off += batch.PreferredSpan {
		end := off + batch.PreferredSpan
		if end > len(cands) {
			end = len(cands)
		}
		profits = batch.Profits(profits, buyTicks[off:end], sellTicks[off:end])
		for j, ticks := range profits {
			c := cands[off+j]
			opp, ok := f.interExchangeFromGap(snaps[c.idx], c.counter, c.buy, batch.FromFixed(ticks))
			if !ok {
				continue
			}
			if !found[c.idx] || opp.ProfitFraction > best[c.idx].ProfitFraction {
				best[c.idx], found[c.idx] = opp, true
			}
		}
	}

	var opps []domain.ArbitrageOpportunity
	for i := range snaps {
		if found[i] {
			opps = append(opps, best[i])
		}
	}
	return opps
}

// findTriangular walks the intermediate priority list and returns the
// first cycle whose composed 3-leg profit, net of three leg fees, clears
// the floor.
func (f *Finder) findTriangular(snap domain.OrderBookSnapshot) (domain.ArbitrageOpportunity, bool) {
	base, quote, ok := instrument.SplitSymbol(snap.Symbol)
	if !ok {
		return domain.ArbitrageOpportunity{}, false
	}
	mid := snap.MidPrice()
	if mid <= 0 {
		return domain.ArbitrageOpportunity{}, false
	}
	for _, x := range f.registry.Intermediates() {
		if x == base || x == quote {
			continue
		}
		legAX := instrument.Pair(base, x)
		legXB := instrument.Pair(x, quote)
		if !f.registry.Has(snap.Exchange, legAX) || !f.registry.Has(snap.Exchange, legXB) {
			continue
		}
		priceAX, okAX := f.refs.get(snap.Exchange, legAX)
		priceXB, okXB := f.refs.get(snap.Exchange, legXB)
		if !okAX || !okXB || priceAX <= 0 || priceXB <= 0 {
			continue
		}
		// One unit of quote: buy base, convert to X, convert back to quote.
		returned := (1 / mid) * priceAX * priceXB
		net := (returned - 1) - 3*f.cfg.FeeRate
		if net < f.cfg.MinTriangularProfit {
			continue
		}
		opp := domain.ArbitrageOpportunity{
			ID:             uuid.Must(uuid.NewRandom()).String(),
			Type:           domain.OpportunityTriangular,
			Exchange:       snap.Exchange,
			Symbol:         snap.Symbol,
			Path:           []string{snap.Symbol, legAX, legXB},
			ProfitFraction: net,
			Confidence:     triangularConfidence,
			Size:           f.proposedSize(snap),
			DetectedAt:     snap.Timestamp,
		}
		f.logger.Debug("triangular opportunity",
			slog.String("symbol", snap.Symbol),
			slog.String("intermediate", x),
			slog.Float64("net_profit", net),
		)
		return opp, true
	}
	return domain.ArbitrageOpportunity{}, false
}

// findInterExchange compares the snapshot mid against every counterpart
// exchange and keeps the widest gap that clears the floor.
func (f *Finder) findInterExchange(snap domain.OrderBookSnapshot) (domain.ArbitrageOpportunity, bool) {
	mid := snap.MidPrice()
	if mid <= 0 {
		return domain.ArbitrageOpportunity{}, false
	}
	if _, _, ok := instrument.SplitSymbol(snap.Symbol); !ok {
		return domain.ArbitrageOpportunity{}, false
	}
	var (
		best    domain.ArbitrageOpportunity
		bestNet float64
		found   bool
	)
	for _, counter := range sortedKeys(f.refs.others(snap.Exchange, snap.Symbol)) {
		ref, _ := f.refs.get(counter, snap.Symbol)
		buy, sell := mid, ref
		if ref < mid {
			buy, sell = ref, mid
		}
		if opp, ok := f.interExchangeFromGap(snap, counter, buy, sell-buy); ok && opp.ProfitFraction > bestNet {
			best, bestNet, found = opp, opp.ProfitFraction, true
		}
	}
	return best, found
}

// interExchangeFromGap turns a cross-venue price gap into an opportunity
// when the gross relative difference clears the floor. The net profit
// keeps the configured retention share of the gross edge.
func (f *Finder) interExchangeFromGap(snap domain.OrderBookSnapshot, counter string, buy, gap float64) (domain.ArbitrageOpportunity, bool) {
	if gap <= 0 || buy <= 0 {
		return domain.ArbitrageOpportunity{}, false
	}
	gross := gap / buy
	if gross <= f.cfg.MinInterExchangeDiff {
		return domain.ArbitrageOpportunity{}, false
	}
	net := gross * f.cfg.InterExchangeRetention
	return domain.ArbitrageOpportunity{
		ID:              uuid.Must(uuid.NewRandom()).String(),
		Type:            domain.OpportunityInterExchange,
		Exchange:        snap.Exchange,
		CounterExchange: counter,
		Symbol:          snap.Symbol,
		ProfitFraction:  net,
		Confidence:      interExchangeConfidence,
		Size:            f.proposedSize(snap),
		DetectedAt:      snap.Timestamp,
	}, true
}

// proposedSize derives a size from the top-of-book, bounded by MaxSize,
// falling back to DefaultSize for snapshots with no usable top level.
func (f *Finder) proposedSize(snap domain.OrderBookSnapshot) float64 {
	size := f.cfg.DefaultSize
	if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
		if top := min(snap.Bids[0].Size, snap.Asks[0].Size); top > 0 {
			size = top
		}
	}
	if f.cfg.MaxSize > 0 && size > f.cfg.MaxSize {
		size = f.cfg.MaxSize
	}
	return size
}

func sortedKeys(m map[string]float64) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
