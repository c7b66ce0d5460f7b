// Package batch computes elementwise arbitrage profits over fixed-point
// price pairs. The kernel is selected once per process from the CPU's
// vector capabilities; every tier computes the identical closed form
// max(sell-buy, 0), so the choice is a throughput decision and never a
// source of numeric divergence.
package batch

import (
	"math"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

const (
	// PriceScale converts float prices to fixed-point ticks.
	PriceScale = 1_000_000

	// PreferredSpan is the batch length that amortizes dispatch overhead;
	// callers chunk larger inputs to this size.
	PreferredSpan = 2048
)

// ToFixed converts a float price to fixed-point ticks, rounding to the
// nearest tick.
func ToFixed(price float64) int64 {
	return int64(math.Round(price * PriceScale))
}

// FromFixed converts fixed-point ticks back to a float price.
func FromFixed(ticks int64) float64 {
	return float64(ticks) / PriceScale
}

// Tier identifies the widest instruction set the kernel runs at.
type Tier int

const (
	TierScalar Tier = iota
	TierSSE2        // 2 lanes of int64
	TierAVX2        // 4 lanes
	TierAVX512      // 8 lanes
)

// String returns the tier name for logs.
func (t Tier) String() string {
	switch t {
	case TierAVX512:
		return "avx512"
	case TierAVX2:
		return "avx2"
	case TierSSE2:
		return "sse2"
	default:
		return "scalar"
	}
}

var (
	tierOnce   sync.Once
	activeTier Tier
)

// ActiveTier reports the tier chosen for this process. Detection runs once
// on first use.
func ActiveTier() Tier {
	tierOnce.Do(func() {
		switch {
		case cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ):
			activeTier = TierAVX512
		case cpuid.CPU.Supports(cpuid.AVX2):
			activeTier = TierAVX2
		case cpuid.CPU.Supports(cpuid.SSE2):
			activeTier = TierSSE2
		default:
			activeTier = TierScalar
		}
	})
	return activeTier
}

// Profits computes dst[i] = max(sell[i]-buy[i], 0) for i < min(len(buy),
// len(sell)) using the process-wide tier. dst is reused when large enough.
func Profits(dst, buy, sell []int64) []int64 {
	return ProfitsWithTier(dst, buy, sell, ActiveTier())
}

// ProfitsWithTier is Profits with an explicit tier, used by tests to prove
// path independence. Unknown tiers fall back to the scalar loop.
func ProfitsWithTier(dst, buy, sell []int64, tier Tier) []int64 {
	n := len(buy)
	if len(sell) < n {
		n = len(sell)
	}
	if cap(dst) < n {
		dst = make([]int64, n)
	}
	dst = dst[:n]
	switch tier {
	case TierAVX512:
		profits8(dst, buy[:n], sell[:n])
	case TierAVX2:
		profits4(dst, buy[:n], sell[:n])
	case TierSSE2:
		profits2(dst, buy[:n], sell[:n])
	default:
		profitsScalar(dst, buy[:n], sell[:n])
	}
	return dst
}

func profitsScalar(dst, buy, sell []int64) {
	for i := range dst {
		p := sell[i] - buy[i]
		if p < 0 {
			p = 0
		}
		dst[i] = p
	}
}

// profits8 is the 8-lane unrolled body. The bounds hints let the compiler
// vectorize the inner block on AVX-512 capable targets.
func profits8(dst, buy, sell []int64) {
	i := 0
	for ; i+8 <= len(dst); i += 8 {
		d := dst[i : i+8 : i+8]
		b := buy[i : i+8 : i+8]
		s := sell[i : i+8 : i+8]
		for j := 0; j < 8; j++ {
			p := s[j] - b[j]
			if p < 0 {
				p = 0
			}
			d[j] = p
		}
	}
	profitsScalar(dst[i:], buy[i:], sell[i:])
}

func profits4(dst, buy, sell []int64) {
	i := 0
	for ; i+4 <= len(dst); i += 4 {
		d := dst[i : i+4 : i+4]
		b := buy[i : i+4 : i+4]
		s := sell[i : i+4 : i+4]
		for j := 0; j < 4; j++ {
			p := s[j] - b[j]
			if p < 0 {
				p = 0
			}
			d[j] = p
		}
	}
	profitsScalar(dst[i:], buy[i:], sell[i:])
}

func profits2(dst, buy, sell []int64) {
	i := 0
	for ; i+2 <= len(dst); i += 2 {
		p0 := sell[i] - buy[i]
		if p0 < 0 {
			p0 = 0
		}
		p1 := sell[i+1] - buy[i+1]
		if p1 < 0 {
			p1 = 0
		}
		dst[i] = p0
		dst[i+1] = p1
	}
	profitsScalar(dst[i:], buy[i:], sell[i:])
}
