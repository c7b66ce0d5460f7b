package domain

import "time"

// PriceLevel is a single price+size entry in an order book.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderBookSnapshot is a point-in-time view of one instrument's resting
// orders on one exchange. Bids are expected in descending price order and
// asks in ascending order; a violation is reported as a structure anomaly
// by the detector rather than rejected here.
type OrderBookSnapshot struct {
	Exchange  string
	Symbol    string
	Timestamp time.Time
	Bids      []PriceLevel
	Asks      []PriceLevel
}

// BestBid returns the highest bid price, or 0 when the bid side is empty.
func (s OrderBookSnapshot) BestBid() float64 {
	if len(s.Bids) == 0 {
		return 0
	}
	return s.Bids[0].Price
}

// BestAsk returns the lowest ask price, or 0 when the ask side is empty.
func (s OrderBookSnapshot) BestAsk() float64 {
	if len(s.Asks) == 0 {
		return 0
	}
	return s.Asks[0].Price
}

// MidPrice returns the average of best bid and best ask, or 0 when either
// side is empty.
func (s OrderBookSnapshot) MidPrice() float64 {
	bid, ask := s.BestBid(), s.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return (bid + ask) / 2
}

// SpreadFraction returns (best_ask - best_bid) / best_bid, or 0 when either
// side is empty or the best bid is zero.
func (s OrderBookSnapshot) SpreadFraction() float64 {
	bid, ask := s.BestBid(), s.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return (ask - bid) / bid
}

// PricePoint is one rolling-history entry kept by the anomaly detector.
type PricePoint struct {
	Timestamp time.Time
	Mid       float64
}
