// Package agent holds the market participants. Every agent derives a
// per-interval quote from its household profiles and then decides, from a
// book snapshot, whether to post that quote or cross the book with it.
// The strategies differ only in how much of the book they are willing to
// search and what they do with what they find.
package agent

import (
	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

// Agent is the decision contract the clearing loop drives.
//
// MakeQuote returns the agent's priced intent for interval t, or false
// when the agent has nothing to trade. Repeated calls for the same t
// return the same quote. Decide turns a book snapshot into an action;
// it may call MakeQuote internally.
type Agent interface {
	ID() string
	Type() string
	MakeQuote(t int) (model.Quote, bool)
	Decide(snap market.Snapshot, t int) model.Action
}

// crosses reports whether a resting price is executable against a quote:
// a buyer crosses asks at or below its price, a seller crosses bids at or
// above it.
func crosses(q model.Quote, restingPrice float64) bool {
	if q.Side == model.Buy {
		return restingPrice <= q.Price
	}
	return restingPrice >= q.Price
}

// betterPrice reports whether candidate beats incumbent for the quoting
// side: buyers prefer cheaper asks, sellers prefer higher bids. Strict,
// so the earliest offer wins ties.
func betterPrice(side model.Side, candidate, incumbent float64) bool {
	if side == model.Buy {
		return candidate < incumbent
	}
	return candidate > incumbent
}

// farSide returns the side of the snapshot a quote would execute against.
func farSide(snap market.Snapshot, side model.Side) []model.Order {
	if side == model.Buy {
		return snap.Asks
	}
	return snap.Bids
}

func minQty(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
