package anomaly

import (
	"sync"
	"time"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
)

// history is a fixed-capacity ring of mid-price points for one instrument.
// Each instrument has its own lock so two workers touching different
// instruments never contend.
type history struct {
	mu    sync.Mutex
	buf   []domain.PricePoint
	next  int
	count int
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &history{buf: make([]domain.PricePoint, capacity)}
}

// append records a point, dropping the oldest when full, and returns a
// chronological copy of the buffer contents.
func (h *history) append(ts time.Time, mid float64) []domain.PricePoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = domain.PricePoint{Timestamp: ts, Mid: mid}
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
	out := make([]domain.PricePoint, 0, h.count)
	start := h.next - h.count
	if start < 0 {
		start += len(h.buf)
	}
	for i := 0; i < h.count; i++ {
		out = append(out, h.buf[(start+i)%len(h.buf)])
	}
	return out
}

// len returns the number of recorded points.
func (h *history) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}
