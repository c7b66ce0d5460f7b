package opportunity

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/instrument"
)

func newTestFinder(registry *instrument.Registry) *Finder {
	if registry == nil {
		registry = instrument.NewRegistry()
	}
	return NewFinder(Defaults(), registry, slog.New(slog.DiscardHandler))
}

func bookSnapshot(exchange, symbol string, bid, ask float64) domain.OrderBookSnapshot {
	return domain.OrderBookSnapshot{
		Exchange:  exchange,
		Symbol:    symbol,
		Timestamp: time.Now(),
		Bids:      []domain.PriceLevel{{Price: bid, Size: 2}},
		Asks:      []domain.PriceLevel{{Price: ask, Size: 3}},
	}
}

func TestFindTriangular(t *testing.T) {
	registry := instrument.NewRegistry()
	registry.Add("binance", "ETH/USDT")
	registry.Add("binance", "ETH/BTC")
	registry.Add("binance", "BTC/USDT")

	f := newTestFinder(registry)
	f.SetReference("binance", "ETH/BTC", 0.05)
	// Composed cycle returns 1.0045 per unit, 0.15% net of three legs of
	// fees at 0.1% each.
	f.SetReference("binance", "BTC/USDT", 40180)

	snap := bookSnapshot("binance", "ETH/USDT", 1999, 2001)
	opp, ok := f.Find(snap)
	require.True(t, ok)

	assert.Equal(t, domain.OpportunityTriangular, opp.Type)
	assert.Equal(t, "binance", opp.Exchange)
	assert.Equal(t, []string{"ETH/USDT", "ETH/BTC", "BTC/USDT"}, opp.Path)
	assert.InDelta(t, 0.0015, opp.ProfitFraction, 1e-9)
	assert.Equal(t, 0.75, opp.Confidence)
	assert.Equal(t, 2.0, opp.Size)
	assert.NotEmpty(t, opp.ID)
}

func TestFindTriangularBelowFloor(t *testing.T) {
	registry := instrument.NewRegistry()
	registry.Add("binance", "ETH/USDT")
	registry.Add("binance", "ETH/BTC")
	registry.Add("binance", "BTC/USDT")

	f := newTestFinder(registry)
	f.SetReference("binance", "ETH/BTC", 0.05)
	// Cycle returns exactly 1.0: fees eat it.
	f.SetReference("binance", "BTC/USDT", 40000)

	_, ok := f.Find(bookSnapshot("binance", "ETH/USDT", 1999, 2001))
	assert.False(t, ok)
}

func TestFindInterExchange(t *testing.T) {
	f := newTestFinder(nil)
	f.SetReference("okx", "ETH/USDT", 2020)

	snap := bookSnapshot("binance", "ETH/USDT", 1999, 2001)
	opp, ok := f.Find(snap)
	require.True(t, ok)

	assert.Equal(t, domain.OpportunityInterExchange, opp.Type)
	assert.Equal(t, "binance", opp.Exchange)
	assert.Equal(t, "okx", opp.CounterExchange)
	// 1% gross gap, 80% retained.
	assert.InDelta(t, 0.008, opp.ProfitFraction, 1e-9)
	assert.Equal(t, 0.85, opp.Confidence)
}

func TestFindInterExchangeBelowFloor(t *testing.T) {
	f := newTestFinder(nil)
	f.SetReference("okx", "ETH/USDT", 2008)

	_, ok := f.Find(bookSnapshot("binance", "ETH/USDT", 1999, 2001))
	assert.False(t, ok)
}

func TestFindRejectsMalformedSymbol(t *testing.T) {
	f := newTestFinder(nil)
	f.SetReference("okx", "ETHUSDT", 2020)

	_, ok := f.Find(bookSnapshot("binance", "ETHUSDT", 1999, 2001))
	assert.False(t, ok)
}

func TestFindBatchMatchesSingleFind(t *testing.T) {
	f := newTestFinder(nil)
	f.SetReference("okx", "ETH/USDT", 2020)
	f.SetReference("okx", "BTC/USDT", 40100) // 0.25% gap, below floor

	snaps := []domain.OrderBookSnapshot{
		bookSnapshot("binance", "ETH/USDT", 1999, 2001),
		bookSnapshot("binance", "BTC/USDT", 39999, 40001),
	}

	opps := f.FindBatch(snaps)
	require.Len(t, opps, 1)
	assert.Equal(t, "ETH/USDT", opps[0].Symbol)
	assert.Equal(t, domain.OpportunityInterExchange, opps[0].Type)
	assert.InDelta(t, 0.008, opps[0].ProfitFraction, 1e-6)
}

func TestFindBatchOneOpportunityPerSnapshot(t *testing.T) {
	registry := instrument.NewRegistry()
	registry.Add("binance", "ETH/USDT")
	registry.Add("binance", "ETH/BTC")
	registry.Add("binance", "BTC/USDT")

	f := newTestFinder(registry)
	// A qualifying triangular cycle plus two qualifying cross-venue gaps
	// on the same snapshot: the triangular one wins, nothing else leaks.
	f.SetReference("binance", "ETH/BTC", 0.05)
	f.SetReference("binance", "BTC/USDT", 40180)
	f.SetReference("okx", "ETH/USDT", 2020)
	f.SetReference("bybit", "ETH/USDT", 2030)

	opps := f.FindBatch([]domain.OrderBookSnapshot{
		bookSnapshot("binance", "ETH/USDT", 1999, 2001),
	})
	require.Len(t, opps, 1)
	assert.Equal(t, domain.OpportunityTriangular, opps[0].Type)
}

func TestFindBatchKeepsWidestGap(t *testing.T) {
	f := newTestFinder(nil)
	f.SetReference("okx", "ETH/USDT", 2020)   // 1% gap
	f.SetReference("bybit", "ETH/USDT", 2030) // 1.5% gap

	snap := bookSnapshot("binance", "ETH/USDT", 1999, 2001)
	opps := f.FindBatch([]domain.OrderBookSnapshot{snap})
	require.Len(t, opps, 1)
	assert.Equal(t, domain.OpportunityInterExchange, opps[0].Type)
	assert.Equal(t, "bybit", opps[0].CounterExchange)
	assert.InDelta(t, 0.012, opps[0].ProfitFraction, 1e-6)

	// The batch winner is the same one Find picks for the snapshot.
	single, ok := f.Find(snap)
	require.True(t, ok)
	assert.Equal(t, single.CounterExchange, opps[0].CounterExchange)
	assert.InDelta(t, single.ProfitFraction, opps[0].ProfitFraction, 1e-9)
}

func TestFoundProfitsNeverNegative(t *testing.T) {
	f := newTestFinder(nil)
	// Reference below the local mid: the gap direction flips but the
	// reported profit stays positive.
	f.SetReference("okx", "ETH/USDT", 1980)

	opp, ok := f.Find(bookSnapshot("binance", "ETH/USDT", 1999, 2001))
	require.True(t, ok)
	assert.GreaterOrEqual(t, opp.ProfitFraction, 0.0)
}
