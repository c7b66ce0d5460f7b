package opportunity

import "sync"

// referenceTable tracks the last observed mid price per exchange+symbol.
// The scheduler feeds it from every passing tick, which is what makes
// inter-exchange comparison possible without any live connectivity in the
// core.
type referenceTable struct {
	mu   sync.RWMutex
	mids map[string]map[string]float64 // exchange -> symbol -> mid
}

func newReferenceTable() *referenceTable {
	return &referenceTable{mids: make(map[string]map[string]float64)}
}

func (t *referenceTable) set(exchange, symbol string, mid float64) {
	if mid <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	byExchange, ok := t.mids[exchange]
	if !ok {
		byExchange = make(map[string]float64)
		t.mids[exchange] = byExchange
	}
	byExchange[symbol] = mid
}

func (t *referenceTable) get(exchange, symbol string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	mid, ok := t.mids[exchange][symbol]
	return mid, ok
}

// others returns every exchange other than the given one that has a mid
// for the symbol, with its mid.
func (t *referenceTable) others(exchange, symbol string) map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out map[string]float64
	for ex, byExchange := range t.mids {
		if ex == exchange {
			continue
		}
		mid, ok := byExchange[symbol]
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]float64)
		}
		out[ex] = mid
	}
	return out
}
