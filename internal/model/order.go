package model

import (
	"errors"
	"math"
)

// Side distinguishes demand (buy) from supply (sell).
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide normalizes a side string from config or API input.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	}
	return "", errors.New("side must be \"buy\" or \"sell\"")
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// DefaultTickCPerKWh is the price grid all submitted prices snap to.
const DefaultTickCPerKWh = 0.1

// QuantizePrice snaps a price to the nearest multiple of tick using
// round-half-to-even, then rounds the result to 3 decimals so that
// repeated quantization is stable. A non-positive tick disables snapping.
func QuantizePrice(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	q := math.RoundToEven(price/tick) * tick
	return math.RoundToEven(q*1000) / 1000
}

// Order is one resting limit order in the book.
// Units:
// - Price: cents/kWh, tick-quantized
// - Qty: kWh remaining (shrinks as fills happen)
// Seq is the global arrival counter; equal-priced orders queue by Seq.
type Order struct {
	ID    uint64
	Price float64
	Qty   float64
	Side  Side
	Owner string
	Seq   uint64
}

// Trade records one execution. Price is the price actually paid:
// the maker's resting price under continuous matching, the seller's
// ask under batch matching. BidPrice/AskPrice keep both quoted prices
// at match time so welfare can be computed from the quotes alone.
type Trade struct {
	Price        float64
	Qty          float64
	Buyer        string
	Seller       string
	MakerOrderID uint64
	TakerOrderID uint64
	BidPrice     float64
	AskPrice     float64
}

// Surplus is the quote spread captured by this trade: (bid - ask) * qty.
func (t Trade) Surplus() float64 {
	return (t.BidPrice - t.AskPrice) * t.Qty
}

// Quote is an agent's priced intent for one interval, before any
// decision logic decides whether to post it or cross the book with it.
type Quote struct {
	Price float64
	Qty   float64
	Side  Side
}
