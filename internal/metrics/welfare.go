// Package metrics computes per-interval welfare and price statistics.
// Welfare is quote surplus: what buyers quoted minus what sellers quoted,
// summed over matched quantity. It needs no private valuations, only the
// prices agents actually put on the wire.
package metrics

import (
	"sort"

	"p2p-market-sim/internal/model"
)

// QuoteWelfare sums (bid - ask) * qty over the given trades.
func QuoteWelfare(trades []model.Trade) float64 {
	var w float64
	for _, t := range trades {
		w += t.Surplus()
	}
	return w
}

// BoundOptions mirrors the feeder constraint applied during matching.
type BoundOptions struct {
	FeederLimitKW float64 // zero or negative disables the cap
	StepMinutes   int     // 5 when unset
}

// PlannerBound is the quote welfare a greedy planner would reach if it
// could pair the given orders freely: bids from highest, asks from
// lowest, matched while they cross. It upper-bounds what any mechanism
// can realize from the same orders. Also returns the planner's matched
// energy.
func PlannerBound(bids, asks []model.Order, opts BoundOptions) (bound, traded float64) {
	bs := append([]model.Order(nil), bids...)
	as := append([]model.Order(nil), asks...)
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].Price > bs[j].Price })
	sort.SliceStable(as, func(i, j int) bool { return as[i].Price < as[j].Price })

	energyCap := -1.0
	if opts.FeederLimitKW > 0 {
		step := opts.StepMinutes
		if step <= 0 {
			step = 5
		}
		energyCap = opts.FeederLimitKW * float64(step) / 60
	}

	i, j := 0, 0
	for i < len(bs) && j < len(as) {
		b := &bs[i]
		a := &as[j]
		if b.Price < a.Price {
			break
		}
		qty := b.Qty
		if a.Qty < qty {
			qty = a.Qty
		}
		if energyCap >= 0 {
			remaining := energyCap - traded
			if remaining <= 0 {
				break
			}
			if qty > remaining {
				qty = remaining
			}
		}
		bound += (b.Price - a.Price) * qty
		traded += qty
		b.Qty -= qty
		a.Qty -= qty
		if b.Qty <= 0 {
			i++
		}
		if a.Qty <= 0 {
			j++
		}
	}
	return bound, traded
}

// Efficiency is realized welfare over the planner bound, zero when the
// bound is not positive.
func Efficiency(welfare, bound float64) float64 {
	if bound <= 0 {
		return 0
	}
	return welfare / bound
}

// PriceStats returns the mean and population variance of trade prices.
func PriceStats(trades []model.Trade) (mean, variance float64) {
	if len(trades) == 0 {
		return 0, 0
	}
	for _, t := range trades {
		mean += t.Price
	}
	mean /= float64(len(trades))
	for _, t := range trades {
		d := t.Price - mean
		variance += d * d
	}
	variance /= float64(len(trades))
	return mean, variance
}
