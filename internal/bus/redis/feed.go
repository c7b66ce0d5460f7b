package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/instrument"
)

// snapshotTopicPattern matches the per-exchange+instrument snapshot topics
// published by the surrounding feed layer, e.g. "book:binance:BTC/USDT".
const snapshotTopicPattern = "book:*"

// Submitter accepts decoded snapshots; in production it is the scheduler.
type Submitter interface {
	Submit(domain.OrderBookSnapshot) error
}

// snapshotPayload is the JSON wire shape on the snapshot topics. Levels
// are [price, size] pairs.
type snapshotPayload struct {
	Exchange  string       `json:"exchange"`
	Symbol    string       `json:"symbol"`
	Timestamp string       `json:"timestamp"`
	Bids      [][2]float64 `json:"bids"`
	Asks      [][2]float64 `json:"asks"`
}

// Feed subscribes to the snapshot topics and feeds decoded ticks into the
// scheduler. A malformed message is logged and dropped; it never stops the
// feed.
type Feed struct {
	rdb       *redis.Client
	submitter Submitter
	logger    *slog.Logger
}

// NewFeed creates a feed over the given client.
func NewFeed(c *Client, submitter Submitter, logger *slog.Logger) *Feed {
	return &Feed{
		rdb:       c.Underlying(),
		submitter: submitter,
		logger:    logger.With(slog.String("component", "snapshot_feed")),
	}
}

// Run subscribes to the snapshot topics and blocks until the context is
// cancelled or the scheduler closes.
func (f *Feed) Run(ctx context.Context) error {
	pubsub := f.rdb.PSubscribe(ctx, snapshotTopicPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("redis feed: subscribe %s: %w", snapshotTopicPattern, err)
	}
	defer pubsub.Close()

	f.logger.Info("snapshot feed started", slog.String("pattern", snapshotTopicPattern))
	defer f.logger.Info("snapshot feed stopped")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := f.handleMessage([]byte(msg.Payload)); err != nil {
				if err == domain.ErrSchedulerClosed {
					return nil
				}
				f.logger.Warn("snapshot dropped",
					slog.String("channel", msg.Channel),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (f *Feed) handleMessage(payload []byte) error {
	var p snapshotPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if p.Exchange == "" || p.Symbol == "" {
		return fmt.Errorf("snapshot missing exchange or symbol")
	}
	if _, _, ok := instrument.SplitSymbol(p.Symbol); !ok {
		return fmt.Errorf("snapshot symbol %q: %w", p.Symbol, domain.ErrInvalidSymbol)
	}
	ts := time.Now()
	if p.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
			ts = t
		}
	}
	return f.submitter.Submit(domain.OrderBookSnapshot{
		Exchange:  p.Exchange,
		Symbol:    p.Symbol,
		Timestamp: ts,
		Bids:      toLevels(p.Bids),
		Asks:      toLevels(p.Asks),
	})
}

func toLevels(pairs [][2]float64) []domain.PriceLevel {
	if len(pairs) == 0 {
		return nil
	}
	levels := make([]domain.PriceLevel, len(pairs))
	for i, p := range pairs {
		levels[i] = domain.PriceLevel{Price: p[0], Size: p[1]}
	}
	return levels
}
