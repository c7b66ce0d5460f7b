package batch

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFixedRounding(t *testing.T) {
	assert.Equal(t, int64(1_000_000), ToFixed(1.0))
	assert.Equal(t, int64(1_234_568), ToFixed(1.2345678))
	assert.Equal(t, int64(500_000), ToFixed(0.5))
	assert.Equal(t, 2.5, FromFixed(2_500_000))
}

func TestProfitsClampsNegative(t *testing.T) {
	buy := []int64{100, 200, 300}
	sell := []int64{150, 200, 250}

	got := Profits(nil, buy, sell)
	assert.Equal(t, []int64{50, 0, 0}, got)
}

func TestProfitsShortestLengthWins(t *testing.T) {
	buy := []int64{100, 200}
	sell := []int64{150, 300, 999}

	got := Profits(nil, buy, sell)
	assert.Equal(t, []int64{50, 100}, got)
}

func TestProfitsReusesDestination(t *testing.T) {
	dst := make([]int64, 0, 8)
	buy := []int64{10, 20, 30}
	sell := []int64{15, 25, 35}

	got := Profits(dst, buy, sell)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{5, 5, 5}, got)
}

// Every tier must produce the same output for the same input, including
// lengths that leave a remainder after the unrolled body.
func TestProfitsPathIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tiers := []Tier{TierScalar, TierSSE2, TierAVX2, TierAVX512}

	for _, n := range []int{0, 1, 2, 3, 7, 8, 9, 63, 64, 65, PreferredSpan, PreferredSpan + 5} {
		buy := make([]int64, n)
		sell := make([]int64, n)
		for i := range buy {
			buy[i] = rng.Int63n(10_000_000)
			sell[i] = rng.Int63n(10_000_000)
		}
		want := ProfitsWithTier(nil, buy, sell, TierScalar)
		for _, tier := range tiers {
			got := ProfitsWithTier(nil, buy, sell, tier)
			assert.Equalf(t, want, got, "tier %s diverges at n=%d", tier, n)
		}
	}
}

func TestActiveTierStable(t *testing.T) {
	first := ActiveTier()
	assert.Equal(t, first, ActiveTier())
	assert.NotEmpty(t, first.String())
}
