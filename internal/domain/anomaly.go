package domain

import "time"

// AnomalyKind identifies the category of a detected market-data anomaly.
type AnomalyKind string

const (
	AnomalyOrderbookManipulation AnomalyKind = "orderbook_manipulation"
	AnomalyLiquidityDrought      AnomalyKind = "liquidity_drought"
	AnomalyCompleteDrought       AnomalyKind = "complete_drought"
	AnomalyPriceManipulation     AnomalyKind = "price_manipulation"
	AnomalyWhaleActivity         AnomalyKind = "whale_activity"
	AnomalyStructure             AnomalyKind = "structure_anomaly"
)

// AnomalySeverity ranks how serious a finding is.
type AnomalySeverity string

const (
	SeverityCritical AnomalySeverity = "critical"
	SeverityHigh     AnomalySeverity = "high"
	SeverityMedium   AnomalySeverity = "medium"
)

// AnomalyAction is the suggested operator response for a finding.
type AnomalyAction string

const (
	ActionHaltTrading        AnomalyAction = "halt_trading"
	ActionSuspendAllTrading  AnomalyAction = "suspend_all_trading"
	ActionReducePositionSize AnomalyAction = "reduce_position_size"
	ActionMonitorClosely     AnomalyAction = "monitor_closely"
	ActionAdjustStrategy     AnomalyAction = "adjust_strategy_params"
)

// AnomalyFinding is one detected irregularity in a snapshot. Findings are
// produced and consumed within a single pipeline pass and never persisted.
type AnomalyFinding struct {
	Kind        AnomalyKind
	Severity    AnomalySeverity
	Description string
	Confidence  float64 // in [0, 1]
	Action      AnomalyAction
	Exchange    string
	Symbol      string
	DetectedAt  time.Time
}
