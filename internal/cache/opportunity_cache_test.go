package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
)

func cachedOpp(symbol string, ts time.Time) domain.ArbitrageOpportunity {
	return domain.ArbitrageOpportunity{
		ID:         fmt.Sprintf("%s-%d", symbol, ts.UnixNano()),
		Type:       domain.OpportunityInterExchange,
		Symbol:     symbol,
		DetectedAt: ts,
	}
}

func TestCacheInsertGet(t *testing.T) {
	c := NewOpportunityCache(8)
	ts := time.Now()

	c.Insert(cachedOpp("BTC/USDT", ts))

	got, ok := c.Get("BTC/USDT", ts)
	require.True(t, ok)
	assert.Equal(t, "BTC/USDT", got.Symbol)

	_, ok = c.Get("ETH/USDT", ts)
	assert.False(t, ok)
}

func TestCacheOverwriteSameKey(t *testing.T) {
	c := NewOpportunityCache(8)
	ts := time.Now()

	first := cachedOpp("BTC/USDT", ts)
	second := first
	second.ProfitFraction = 0.01

	c.Insert(first)
	assert.Zero(t, c.Insert(second))

	assert.Equal(t, 1, c.Len())
	got, _ := c.Get("BTC/USDT", ts)
	assert.Equal(t, 0.01, got.ProfitFraction)
}

func TestCacheNeverExceedsCapacity(t *testing.T) {
	const capacity = 10
	c := NewOpportunityCache(capacity)
	base := time.Now()

	for i := 0; i < 100; i++ {
		c.Insert(cachedOpp("BTC/USDT", base.Add(time.Duration(i)*time.Millisecond)))
		assert.LessOrEqual(t, c.Len(), capacity)
	}
	assert.Positive(t, c.Evictions())
}

func TestCacheEvictsOldestHalf(t *testing.T) {
	c := NewOpportunityCache(4)
	base := time.Now()

	for i := 0; i < 4; i++ {
		assert.Zero(t, c.Insert(cachedOpp("BTC/USDT", base.Add(time.Duration(i)*time.Second))))
	}
	require.Equal(t, 4, c.Len())

	// The fifth insert evicts the two oldest entries first and reports
	// the count to the caller.
	assert.Equal(t, 2, c.Insert(cachedOpp("BTC/USDT", base.Add(4*time.Second))))
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, int64(2), c.Evictions())

	_, ok := c.Get("BTC/USDT", base)
	assert.False(t, ok)
	_, ok = c.Get("BTC/USDT", base.Add(4*time.Second))
	assert.True(t, ok)
}

func TestCacheInWindow(t *testing.T) {
	c := NewOpportunityCache(16)
	base := time.Now()

	for i := 0; i < 5; i++ {
		c.Insert(cachedOpp("BTC/USDT", base.Add(time.Duration(i)*time.Second)))
	}
	c.Insert(cachedOpp("ETH/USDT", base.Add(2*time.Second)))

	got := c.InWindow("BTC/USDT", base.Add(1*time.Second), base.Add(3*time.Second))
	require.Len(t, got, 3)
	for _, opp := range got {
		assert.Equal(t, "BTC/USDT", opp.Symbol)
	}
}
