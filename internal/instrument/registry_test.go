package instrument

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAddHas(t *testing.T) {
	r := NewRegistry()
	r.Add("binance", "BTC/USDT")
	r.Add("binance", "ETH/USDT")
	r.Add("okx", "BTC/USDT")

	assert.True(t, r.Has("binance", "BTC/USDT"))
	assert.True(t, r.Has("okx", "BTC/USDT"))
	assert.False(t, r.Has("okx", "ETH/USDT"))
	assert.False(t, r.Has("kraken", "BTC/USDT"))

	assert.ElementsMatch(t, []string{"BTC/USDT", "ETH/USDT"}, r.Symbols("binance"))
	assert.ElementsMatch(t, []string{"binance", "okx"}, r.Exchanges())
}

func TestRegistryIgnoresMalformedSymbols(t *testing.T) {
	r := NewRegistry()
	r.Add("binance", "BTCUSDT")
	r.Add("binance", "BTC/")

	assert.False(t, r.Has("binance", "BTCUSDT"))
	assert.Empty(t, r.Symbols("binance"))
}

func TestRegistryIntermediates(t *testing.T) {
	r := NewRegistry()
	assert.NotEmpty(t, r.Intermediates())

	r.SetIntermediates([]string{"USDT", "BTC"})
	assert.Equal(t, []string{"USDT", "BTC"}, r.Intermediates())

	// An empty override keeps the current list.
	r.SetIntermediates(nil)
	assert.Equal(t, []string{"USDT", "BTC"}, r.Intermediates())
}
