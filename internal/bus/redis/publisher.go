package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
)

// opportunityChannel carries approved opportunities to external execution
// collaborators.
const opportunityChannel = "opportunities"

// Publisher pushes approved opportunities onto the bus.
type Publisher struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewPublisher creates a publisher over the given client.
func NewPublisher(c *Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		rdb:    c.Underlying(),
		logger: logger.With(slog.String("component", "opportunity_publisher")),
	}
}

// Publish sends one approved opportunity as JSON.
func (p *Publisher) Publish(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	payload, err := json.Marshal(map[string]any{
		"event":            "opportunity_approved",
		"opp_id":           opp.ID,
		"type":             opp.Type,
		"exchange":         opp.Exchange,
		"counter_exchange": opp.CounterExchange,
		"symbol":           opp.Symbol,
		"path":             opp.Path,
		"profit_fraction":  opp.ProfitFraction,
		"confidence":       opp.Confidence,
		"size":             opp.Size,
		"detected_at":      opp.DetectedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("redis publisher: marshal %s: %w", opp.ID, err)
	}
	if err := p.rdb.Publish(ctx, opportunityChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis publisher: publish %s: %w", opp.ID, err)
	}
	return nil
}

// Hook adapts Publish to the scheduler's egress callback, logging failures
// instead of propagating them into the pipeline.
func (p *Publisher) Hook(ctx context.Context) func(domain.ArbitrageOpportunity) {
	return func(opp domain.ArbitrageOpportunity) {
		if err := p.Publish(ctx, opp); err != nil {
			p.logger.Warn("opportunity publish failed",
				slog.String("opp_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
