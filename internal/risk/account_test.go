package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountStateFills(t *testing.T) {
	a := NewAccountState()

	a.ApplyFill("BTC/USDT", 2)
	a.ApplyFill("BTC/USDT", 1)
	assert.Equal(t, 3.0, a.Position("BTC/USDT"))

	// A flat position is removed entirely.
	a.ApplyFill("BTC/USDT", -3)
	assert.Equal(t, 0.0, a.Position("BTC/USDT"))
}

func TestAccountStatePnLHighWater(t *testing.T) {
	a := NewAccountState()

	a.RecordPnL(100)
	a.RecordPnL(-30)
	assert.Equal(t, 70.0, a.DailyPnL())

	view := a.view()
	assert.Equal(t, 100.0, view.maxDailyPnL)

	a.ResetDaily()
	assert.Equal(t, 0.0, a.DailyPnL())
	assert.Equal(t, 0.0, a.view().maxDailyPnL)
}
