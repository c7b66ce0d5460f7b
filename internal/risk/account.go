package risk

import "sync"

// AccountState is the process-wide mutable trading state shared by every
// worker. All mutation goes through its methods under one lock; the
// manager takes a consistent view per assessment.
type AccountState struct {
	mu          sync.Mutex
	positions   map[string]float64 // symbol -> signed open size
	dailyPnL    float64
	maxDailyPnL float64 // high-water mark
	riskEvents  int64
}

// stateView is a consistent copy used for one assessment.
type stateView struct {
	positions   map[string]float64
	dailyPnL    float64
	maxDailyPnL float64
}

// NewAccountState returns an empty account state.
func NewAccountState() *AccountState {
	return &AccountState{positions: make(map[string]float64)}
}

// ApplyFill adjusts the open position for a symbol by a signed delta.
func (a *AccountState) ApplyFill(symbol string, delta float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.positions[symbol] + delta
	if next == 0 {
		delete(a.positions, symbol)
		return
	}
	a.positions[symbol] = next
}

// RecordPnL adds realized profit or loss to the daily total and advances
// the high-water mark.
func (a *AccountState) RecordPnL(pnl float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dailyPnL += pnl
	if a.dailyPnL > a.maxDailyPnL {
		a.maxDailyPnL = a.dailyPnL
	}
}

// ResetDaily clears the daily PnL and high-water mark at rollover.
func (a *AccountState) ResetDaily() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dailyPnL = 0
	a.maxDailyPnL = 0
}

// RiskEvents returns the number of rejections recorded so far.
func (a *AccountState) RiskEvents() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.riskEvents
}

// Position returns the open position for a symbol.
func (a *AccountState) Position(symbol string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol]
}

// DailyPnL returns the running daily PnL.
func (a *AccountState) DailyPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dailyPnL
}

func (a *AccountState) view() stateView {
	a.mu.Lock()
	defer a.mu.Unlock()
	positions := make(map[string]float64, len(a.positions))
	for sym, size := range a.positions {
		positions[sym] = size
	}
	return stateView{
		positions:   positions,
		dailyPnL:    a.dailyPnL,
		maxDailyPnL: a.maxDailyPnL,
	}
}

func (a *AccountState) recordRiskEvent() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.riskEvents++
}
