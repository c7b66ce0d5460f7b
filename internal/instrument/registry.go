package instrument

import (
	"sort"
	"sync"
)

// Registry is the static universe of tradable pairs, keyed by exchange.
// It is populated once at startup from configuration and read concurrently
// by the opportunity finder.
type Registry struct {
	mu            sync.RWMutex
	pairs         map[string]map[string]struct{} // exchange -> symbol set
	intermediates []string
}

// defaultIntermediates is the fixed priority list of intermediate
// currencies searched for triangular paths. The order bounds search cost:
// the first qualifying intermediate wins.
var defaultIntermediates = []string{"USDT", "BTC", "ETH", "BNB", "USDC"}

// NewRegistry returns an empty registry with the default intermediate
// priority list. Call Add to register pairs.
func NewRegistry() *Registry {
	return &Registry{
		pairs:         make(map[string]map[string]struct{}),
		intermediates: defaultIntermediates,
	}
}

// SetIntermediates overrides the intermediate-currency priority list.
// An empty list keeps the current one.
func (r *Registry) SetIntermediates(currencies []string) {
	if len(currencies) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intermediates = append([]string(nil), currencies...)
}

// Intermediates returns the priority list of intermediate currencies.
func (r *Registry) Intermediates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.intermediates...)
}

// Add registers a tradable pair on an exchange. Malformed symbols are
// ignored so a bad config entry cannot poison the universe.
func (r *Registry) Add(exchange, symbol string) {
	if _, _, ok := SplitSymbol(symbol); !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.pairs[exchange]
	if !ok {
		set = make(map[string]struct{})
		r.pairs[exchange] = set
	}
	set[symbol] = struct{}{}
}

// Has reports whether the pair is tradable on the exchange.
func (r *Registry) Has(exchange, symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pairs[exchange][symbol]
	return ok
}

// Symbols returns the sorted pair universe for an exchange.
func (r *Registry) Symbols(exchange string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pairs[exchange]))
	for sym := range r.pairs[exchange] {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Exchanges returns the sorted list of exchanges with at least one pair.
func (r *Registry) Exchanges() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pairs))
	for ex := range r.pairs {
		out = append(out, ex)
	}
	sort.Strings(out)
	return out
}
