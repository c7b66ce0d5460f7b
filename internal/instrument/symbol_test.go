package instrument

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSymbol(t *testing.T) {
	base, quote, ok := SplitSymbol("BTC/USDT")
	assert.True(t, ok)
	assert.Equal(t, "BTC", base)
	assert.Equal(t, "USDT", quote)

	for _, bad := range []string{"BTCUSDT", "/USDT", "BTC/", "BTC/USD/T", "", "/"} {
		_, _, ok := SplitSymbol(bad)
		assert.Falsef(t, ok, "symbol %q should be rejected", bad)
	}
}

func TestPairRoundTrip(t *testing.T) {
	base, quote, ok := SplitSymbol(Pair("ETH", "USDC"))
	assert.True(t, ok)
	assert.Equal(t, "ETH", base)
	assert.Equal(t, "USDC", quote)
}

func TestIsStableQuoted(t *testing.T) {
	assert.True(t, IsStableQuoted("BTC/USDT"))
	assert.True(t, IsStableQuoted("ETH/DAI"))
	assert.False(t, IsStableQuoted("ETH/BTC"))
	assert.False(t, IsStableQuoted("malformed"))
}
