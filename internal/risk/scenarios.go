package risk

import (
	"fmt"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/instrument"
)

// scenario is one named stress test applied during assessment. It returns
// the points to add and a limitation string when the simulated condition
// is material.
type scenario struct {
	name  string
	apply func(cfg Config, opp domain.ArbitrageOpportunity, state stateView) (points float64, limitation string)
}

// scenarios is the fixed library applied to every opportunity, in order.
var scenarios = []scenario{
	{
		name: "market crash",
		// A crash-sized adverse move on the proposed size must fit inside
		// the remaining daily-loss headroom.
		apply: func(cfg Config, opp domain.ArbitrageOpportunity, state stateView) (float64, string) {
			loss := opp.Size * cfg.CrashAdverseMove
			headroom := cfg.MaxDailyLoss - abs(state.dailyPnL)
			if headroom < 0 {
				headroom = 0
			}
			if loss <= headroom {
				return 0, ""
			}
			return cfg.CrashPenalty, fmt.Sprintf(
				"market crash scenario: simulated loss %.4f exceeds daily-loss headroom %.4f", loss, headroom)
		},
	},
	{
		name: "liquidity crisis",
		// Non-stable-quoted pairs lose their exit liquidity first.
		apply: func(cfg Config, opp domain.ArbitrageOpportunity, _ stateView) (float64, string) {
			if instrument.IsStableQuoted(opp.Symbol) {
				return 0, ""
			}
			return cfg.LiquidityCrisisPenalty, "liquidity crisis scenario: pair is not stable-quoted"
		},
	},
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
