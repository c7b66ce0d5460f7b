package domain

import "time"

// OpportunityType distinguishes the two supported arbitrage shapes.
type OpportunityType string

const (
	OpportunityTriangular    OpportunityType = "triangular"
	OpportunityInterExchange OpportunityType = "inter_exchange"
)

// ArbitrageOpportunity is a candidate trade cycle produced by the finder.
// ProfitFraction is net of fees and non-negative by construction: paths
// that do not clear the profit floor are discarded, never clamped.
type ArbitrageOpportunity struct {
	ID              string
	Type            OpportunityType
	Exchange        string
	CounterExchange string // inter-exchange only
	Symbol          string
	Path            []string // triangular only: the three legs in order
	ProfitFraction  float64
	Confidence      float64
	Size            float64
	DetectedAt      time.Time
}

// RiskLevel ranks the residual risk of an assessed opportunity.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskAssessment is the risk manager's verdict for one opportunity. It is
// produced fresh per call and not retained.
type RiskAssessment struct {
	Approved       bool
	Level          RiskLevel
	Score          float64
	Limitations    []string
	MaxAllowedSize float64
}
