// Package risk screens arbitrage candidates through an additive multi-factor
// score and throttles or rejects them against shared account state.
package risk

import (
	"fmt"
	"log/slog"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/instrument"
)

// Score contributions and decision thresholds. Scoring is additive across
// independent checks; every contribution is non-negative so the score is
// monotone in each worsening factor.
const (
	limitBreachPoints = 10.0

	abnormalProfitPoints = 50.0
	elevatedProfitPoints = 20.0
	abnormalProfitFloor  = 0.05
	elevatedProfitFloor  = 0.02

	lowConfidencePoints  = 30.0
	softConfidencePoints = 15.0
	lowConfidenceFloor   = 0.7
	softConfidenceFloor  = 0.8

	memeClassPoints     = 25.0
	defiClassPoints     = 15.0
	longNameClassPoints = 20.0
	longBaseNameLen     = 6

	heavyConcentrationPoints = 30.0
	lightConcentrationPoints = 15.0
	heavyConcentrationCount  = 5
	lightConcentrationCount  = 3

	triangularBasePoints    = 15.0
	triangularLegPoints     = 5.0
	illiquidLegNameLen      = 4
	interExchangeSlipPoints = 8.0

	rejectCriticalScore = 80.0
	rejectHighScore     = 60.0
	throttleMediumScore = 40.0
	throttleLowScore    = 20.0

	mediumSizeFactor = 0.5
	lowSizeFactor    = 0.8
)

// Config holds the account limits and stress-scenario parameters.
type Config struct {
	MaxSinglePosition float64
	MaxTotalPositions float64
	MaxDailyLoss      float64
	MaxDrawdown       float64 // fraction of the high-water mark

	CrashAdverseMove       float64
	CrashPenalty           float64
	LiquidityCrisisPenalty float64
}

// Defaults returns the standard risk limits.
func Defaults() Config {
	return Config{
		MaxSinglePosition:      10.0,
		MaxTotalPositions:      50.0,
		MaxDailyLoss:           1000.0,
		MaxDrawdown:            0.2,
		CrashAdverseMove:       0.30,
		CrashPenalty:           20.0,
		LiquidityCrisisPenalty: 10.0,
	}
}

// Manager assesses opportunities against shared account state. The
// assessment itself is a deterministic function of (opportunity, state):
// no hidden history beyond what the state carries.
type Manager struct {
	cfg        Config
	state      *AccountState
	classifier *instrument.Classifier
	logger     *slog.Logger
}

// NewManager creates a manager over the given shared account state.
func NewManager(cfg Config, state *AccountState, classifier *instrument.Classifier, logger *slog.Logger) *Manager {
	if classifier == nil {
		classifier = instrument.NewClassifier(nil, nil, nil)
	}
	return &Manager{
		cfg:        cfg,
		state:      state,
		classifier: classifier,
		logger:     logger.With(slog.String("component", "risk_manager")),
	}
}

// State exposes the shared account state for the host to keep current.
func (m *Manager) State() *AccountState { return m.state }

// Assess scores the opportunity and returns the verdict. Rejections are
// counted as risk events on the account state.
func (m *Manager) Assess(opp domain.ArbitrageOpportunity) domain.RiskAssessment {
	state := m.state.view()

	var score float64
	var limitations []string
	add := func(points float64, limitation string) {
		score += points
		if limitation != "" {
			limitations = append(limitations, limitation)
		}
	}

	m.scoreBasicLimits(add, opp, state)
	m.scoreProfitConfidence(add, opp)
	m.scoreInstrumentClass(add, opp)
	m.scoreConcentration(add, opp, state)
	for _, sc := range scenarios {
		if points, limitation := sc.apply(m.cfg, opp, state); points > 0 {
			add(points, limitation)
		}
	}
	m.scoreMicrostructure(add, opp)

	assessment := m.decide(score, limitations, opp.Size)
	if !assessment.Approved {
		m.state.recordRiskEvent()
		m.logger.Debug("opportunity rejected",
			slog.String("opp_id", opp.ID),
			slog.String("type", string(opp.Type)),
			slog.Float64("score", score),
			slog.String("level", string(assessment.Level)),
		)
	}
	return assessment
}

func (m *Manager) scoreBasicLimits(add func(float64, string), opp domain.ArbitrageOpportunity, state stateView) {
	if m.cfg.MaxSinglePosition > 0 && opp.Size > m.cfg.MaxSinglePosition {
		add(limitBreachPoints, fmt.Sprintf("size %.4f exceeds single-position limit %.4f", opp.Size, m.cfg.MaxSinglePosition))
	}
	var total float64
	for _, size := range state.positions {
		total += abs(size)
	}
	if m.cfg.MaxTotalPositions > 0 && total+opp.Size > m.cfg.MaxTotalPositions {
		add(limitBreachPoints, fmt.Sprintf("total exposure %.4f would exceed limit %.4f", total+opp.Size, m.cfg.MaxTotalPositions))
	}
	if m.cfg.MaxDailyLoss > 0 && abs(state.dailyPnL) > m.cfg.MaxDailyLoss {
		add(limitBreachPoints, fmt.Sprintf("daily PnL magnitude %.4f exceeds loss limit %.4f", abs(state.dailyPnL), m.cfg.MaxDailyLoss))
	}
	if m.cfg.MaxDrawdown > 0 && state.maxDailyPnL > 0 {
		drawdown := (state.maxDailyPnL - state.dailyPnL) / state.maxDailyPnL
		if drawdown > m.cfg.MaxDrawdown {
			add(limitBreachPoints, fmt.Sprintf("drawdown %.2f%% exceeds limit %.2f%%", drawdown*100, m.cfg.MaxDrawdown*100))
		}
	}
}

func (m *Manager) scoreProfitConfidence(add func(float64, string), opp domain.ArbitrageOpportunity) {
	switch {
	case opp.ProfitFraction > abnormalProfitFloor:
		add(abnormalProfitPoints, fmt.Sprintf("abnormal profit %.2f%%", opp.ProfitFraction*100))
	case opp.ProfitFraction > elevatedProfitFloor:
		add(elevatedProfitPoints, fmt.Sprintf("elevated profit %.2f%%", opp.ProfitFraction*100))
	}
	switch {
	case opp.Confidence < lowConfidenceFloor:
		add(lowConfidencePoints, fmt.Sprintf("low confidence %.2f", opp.Confidence))
	case opp.Confidence < softConfidenceFloor:
		add(softConfidencePoints, fmt.Sprintf("soft confidence %.2f", opp.Confidence))
	}
}

func (m *Manager) scoreInstrumentClass(add func(float64, string), opp domain.ArbitrageOpportunity) {
	base, _, ok := instrument.SplitSymbol(opp.Symbol)
	switch m.classifier.Class(opp.Symbol) {
	case instrument.ClassMeme:
		add(memeClassPoints, "meme-class instrument")
	case instrument.ClassDeFi:
		add(defiClassPoints, "defi-class instrument")
	case instrument.ClassMajor:
		if ok && len(base) > longBaseNameLen {
			add(longNameClassPoints, "unusually long base currency name")
		}
	default:
		add(longNameClassPoints, "unrecognized instrument class")
	}
}

func (m *Manager) scoreConcentration(add func(float64, string), opp domain.ArbitrageOpportunity, state stateView) {
	base, _, ok := instrument.SplitSymbol(opp.Symbol)
	if !ok {
		return
	}
	var shared int
	for sym, size := range state.positions {
		if size == 0 {
			continue
		}
		if other, _, ok := instrument.SplitSymbol(sym); ok && other == base {
			shared++
		}
	}
	switch {
	case shared > heavyConcentrationCount:
		add(heavyConcentrationPoints, fmt.Sprintf("%d open positions share base %s", shared, base))
	case shared > lightConcentrationCount:
		add(lightConcentrationPoints, fmt.Sprintf("%d open positions share base %s", shared, base))
	}
}

func (m *Manager) scoreMicrostructure(add func(float64, string), opp domain.ArbitrageOpportunity) {
	switch opp.Type {
	case domain.OpportunityTriangular:
		points := triangularBasePoints
		for _, leg := range opp.Path {
			if base, _, ok := instrument.SplitSymbol(leg); ok && len(base) > illiquidLegNameLen {
				points += triangularLegPoints
			}
		}
		add(points, "triangular execution risk across three legs")
	case domain.OpportunityInterExchange:
		add(interExchangeSlipPoints, "cross-venue execution slippage risk")
	}
}

func (m *Manager) decide(score float64, limitations []string, size float64) domain.RiskAssessment {
	assessment := domain.RiskAssessment{
		Score:       score,
		Limitations: limitations,
	}
	switch {
	case score > rejectCriticalScore:
		assessment.Level = domain.RiskCritical
	case score > rejectHighScore:
		assessment.Level = domain.RiskHigh
	case score > throttleMediumScore:
		assessment.Approved = true
		assessment.Level = domain.RiskMedium
		assessment.MaxAllowedSize = size * mediumSizeFactor
	case score > throttleLowScore:
		assessment.Approved = true
		assessment.Level = domain.RiskLow
		assessment.MaxAllowedSize = size * lowSizeFactor
	default:
		assessment.Approved = true
		assessment.Level = domain.RiskLow
		assessment.MaxAllowedSize = size
	}
	return assessment
}
