// Package instrument provides the static pair registry, symbol parsing, and
// the naming-convention classifier shared by the detector, finder, and risk
// manager.
package instrument

import "strings"

// SplitSymbol parses an "A/B" instrument symbol into base and quote. It
// returns ok=false for symbols without exactly one separator or with an
// empty side; callers reject those immediately.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	i := strings.IndexByte(symbol, '/')
	if i <= 0 || i >= len(symbol)-1 {
		return "", "", false
	}
	if strings.IndexByte(symbol[i+1:], '/') >= 0 {
		return "", "", false
	}
	return symbol[:i], symbol[i+1:], true
}

// Pair joins base and quote back into the canonical "A/B" form.
func Pair(base, quote string) string {
	return base + "/" + quote
}

// stableQuotes are the quote assets treated as stable-valued in stress
// scenarios.
var stableQuotes = map[string]struct{}{
	"USDT": {},
	"USDC": {},
	"DAI":  {},
	"BUSD": {},
}

// IsStableQuoted reports whether the symbol's quote currency is a
// stablecoin. Unknown or malformed symbols are not stable-quoted.
func IsStableQuoted(symbol string) bool {
	_, quote, ok := SplitSymbol(symbol)
	if !ok {
		return false
	}
	_, stable := stableQuotes[quote]
	return stable
}
