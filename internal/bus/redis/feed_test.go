package redis

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
)

type captureSubmitter struct {
	snaps []domain.OrderBookSnapshot
	err   error
}

func (c *captureSubmitter) Submit(snap domain.OrderBookSnapshot) error {
	c.snaps = append(c.snaps, snap)
	return c.err
}

func newTestFeed(sub Submitter) *Feed {
	return &Feed{
		submitter: sub,
		logger:    slog.New(slog.DiscardHandler),
	}
}

func TestFeedDecodesSnapshot(t *testing.T) {
	sub := &captureSubmitter{}
	f := newTestFeed(sub)

	payload := `{
		"exchange": "binance",
		"symbol": "BTC/USDT",
		"timestamp": "2026-08-29T10:00:00.000000001Z",
		"bids": [[40000, 1.5], [39999, 2]],
		"asks": [[40001, 0.5]]
	}`
	require.NoError(t, f.handleMessage([]byte(payload)))
	require.Len(t, sub.snaps, 1)

	snap := sub.snaps[0]
	assert.Equal(t, "binance", snap.Exchange)
	assert.Equal(t, "BTC/USDT", snap.Symbol)
	assert.Equal(t, time.Date(2026, 8, 29, 10, 0, 0, 1, time.UTC), snap.Timestamp.UTC())
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, domain.PriceLevel{Price: 40000, Size: 1.5}, snap.Bids[0])
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, domain.PriceLevel{Price: 40001, Size: 0.5}, snap.Asks[0])
}

func TestFeedRejectsMalformedPayloads(t *testing.T) {
	sub := &captureSubmitter{}
	f := newTestFeed(sub)

	assert.Error(t, f.handleMessage([]byte("not json")))
	assert.Error(t, f.handleMessage([]byte(`{"symbol": "BTC/USDT"}`)))
	assert.Error(t, f.handleMessage([]byte(`{"exchange": "binance"}`)))
	assert.Empty(t, sub.snaps)
}

func TestFeedRejectsInvalidSymbol(t *testing.T) {
	sub := &captureSubmitter{}
	f := newTestFeed(sub)

	err := f.handleMessage([]byte(`{"exchange": "binance", "symbol": "BTCUSDT"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
	assert.Empty(t, sub.snaps)
}

func TestFeedUnparseableTimestampFallsBack(t *testing.T) {
	sub := &captureSubmitter{}
	f := newTestFeed(sub)

	before := time.Now()
	require.NoError(t, f.handleMessage([]byte(`{"exchange": "okx", "symbol": "ETH/USDT", "timestamp": "yesterday"}`)))
	require.Len(t, sub.snaps, 1)
	assert.False(t, sub.snaps[0].Timestamp.Before(before))
}

func TestFeedPropagatesSchedulerClosed(t *testing.T) {
	sub := &captureSubmitter{err: domain.ErrSchedulerClosed}
	f := newTestFeed(sub)

	err := f.handleMessage([]byte(`{"exchange": "okx", "symbol": "ETH/USDT"}`))
	assert.ErrorIs(t, err, domain.ErrSchedulerClosed)
}
