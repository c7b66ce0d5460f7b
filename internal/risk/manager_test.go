package risk

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
)

func newTestManager() *Manager {
	return NewManager(Defaults(), NewAccountState(), nil, slog.New(slog.DiscardHandler))
}

func testOpportunity(symbol string, profit, confidence float64) domain.ArbitrageOpportunity {
	return domain.ArbitrageOpportunity{
		ID:             "test",
		Type:           domain.OpportunityInterExchange,
		Exchange:       "binance",
		Symbol:         symbol,
		ProfitFraction: profit,
		Confidence:     confidence,
		Size:           1.0,
		DetectedAt:     time.Now(),
	}
}

func TestAssessRejectsAbnormalProfitLowConfidence(t *testing.T) {
	m := newTestManager()

	// 12% profit (+50) at 0.6 confidence (+30) plus cross-venue slippage
	// points pushes the score past the critical threshold.
	res := m.Assess(testOpportunity("BTC/USDT", 0.12, 0.6))

	assert.False(t, res.Approved)
	assert.Equal(t, domain.RiskCritical, res.Level)
	assert.Greater(t, res.Score, 80.0)
	assert.NotEmpty(t, res.Limitations)
	assert.Equal(t, int64(1), m.State().RiskEvents())
}

func TestAssessApprovesCleanOpportunity(t *testing.T) {
	m := newTestManager()

	res := m.Assess(testOpportunity("BTC/USDT", 0.01, 0.85))

	assert.True(t, res.Approved)
	assert.Equal(t, domain.RiskLow, res.Level)
	assert.Equal(t, 1.0, res.MaxAllowedSize)
}

func TestAssessThrottlesMediumRisk(t *testing.T) {
	m := newTestManager()

	// Meme class (+25), soft confidence (+15), slippage (+8): medium band.
	res := m.Assess(testOpportunity("DOGE/USDT", 0.01, 0.75))

	assert.True(t, res.Approved)
	assert.Equal(t, domain.RiskMedium, res.Level)
	assert.Equal(t, 0.5, res.MaxAllowedSize)
}

func TestAssessThrottlesLowRisk(t *testing.T) {
	m := newTestManager()

	// Soft confidence (+15), slippage (+8): low band, 80% of size.
	res := m.Assess(testOpportunity("BTC/USDT", 0.01, 0.75))

	assert.True(t, res.Approved)
	assert.Equal(t, domain.RiskLow, res.Level)
	assert.Equal(t, 0.8, res.MaxAllowedSize)
}

func TestScoreMonotoneInProfit(t *testing.T) {
	m := newTestManager()

	low := m.Assess(testOpportunity("BTC/USDT", 0.01, 0.9))
	mid := m.Assess(testOpportunity("BTC/USDT", 0.03, 0.9))
	high := m.Assess(testOpportunity("BTC/USDT", 0.06, 0.9))

	assert.LessOrEqual(t, low.Score, mid.Score)
	assert.LessOrEqual(t, mid.Score, high.Score)
}

func TestAssessConcentrationPenalty(t *testing.T) {
	m := newTestManager()
	baseline := m.Assess(testOpportunity("BTC/BUSD", 0.01, 0.9)).Score

	for _, sym := range []string{"BTC/USDT", "BTC/USDC", "BTC/DAI", "BTC/EUR"} {
		m.State().ApplyFill(sym, 1)
	}
	loaded := m.Assess(testOpportunity("BTC/BUSD", 0.01, 0.9)).Score

	assert.Greater(t, loaded, baseline)
}

func TestAssessMarketCrashScenario(t *testing.T) {
	m := newTestManager()
	m.State().RecordPnL(-999.9) // headroom left is below the simulated crash loss

	res := m.Assess(testOpportunity("BTC/USDT", 0.01, 0.9))

	require.True(t, res.Approved)
	found := false
	for _, lim := range res.Limitations {
		if strings.Contains(lim, "market crash") {
			found = true
		}
	}
	assert.True(t, found, "expected a market crash limitation, got %v", res.Limitations)
}

func TestAssessLiquidityCrisisScenario(t *testing.T) {
	m := newTestManager()

	res := m.Assess(testOpportunity("ETH/BTC", 0.01, 0.9))

	found := false
	for _, lim := range res.Limitations {
		if strings.Contains(lim, "not stable-quoted") {
			found = true
		}
	}
	assert.True(t, found, "expected a liquidity crisis limitation, got %v", res.Limitations)
}

func TestAssessSinglePositionLimit(t *testing.T) {
	m := newTestManager()

	opp := testOpportunity("BTC/USDT", 0.01, 0.9)
	opp.Size = 50 // over the 10.0 single-position limit
	res := m.Assess(opp)

	found := false
	for _, lim := range res.Limitations {
		if strings.Contains(lim, "single-position limit") {
			found = true
		}
	}
	assert.True(t, found, "expected a position limit limitation, got %v", res.Limitations)
}
