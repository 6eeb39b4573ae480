package agent

import (
	"errors"

	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

// FillMode selects how an optimizer sizes a crossing order.
type FillMode int

const (
	// FillSingle accepts the single best-priced crossing offer.
	FillSingle FillMode = iota
	// FillGreedy accepts cumulative crossing quantity across offers.
	FillGreedy
)

func (m FillMode) String() string {
	if m == FillGreedy {
		return "greedy"
	}
	return "single"
}

// ParseFillMode reads a mode name from config or API input.
func ParseFillMode(s string) (FillMode, error) {
	switch s {
	case "single":
		return FillSingle, nil
	case "greedy":
		return FillGreedy, nil
	}
	return FillSingle, errors.New("optimizer mode must be \"single\" or \"greedy\"")
}

// Optimizer scans the whole far side every interval and takes the best
// execution its fill mode allows, posting only when nothing crosses. It
// is the full-information, full-effort benchmark: SolverCalls records
// the scan size each decision paid for.
type Optimizer struct {
	Prosumer
	mode FillMode
}

func NewOptimizer(id string, seed int64, profiles model.ProfileSet, params ProsumerParams, mode FillMode) *Optimizer {
	return &Optimizer{
		Prosumer: *NewProsumer(id, seed, profiles, params),
		mode:     mode,
	}
}

func (o *Optimizer) Type() string {
	return "optimizer"
}

func (o *Optimizer) Decide(snap market.Snapshot, t int) model.Action {
	quote, ok := o.MakeQuote(t)
	if !ok {
		return model.Action{Type: model.ActionNone}
	}
	far := farSide(snap, quote.Side)
	scanned := len(far)

	if o.mode == FillGreedy {
		var available float64
		for _, offer := range far {
			if crosses(quote, offer.Price) {
				available += offer.Qty
			}
		}
		if available > 0 {
			return model.Action{
				Type:        model.ActionAccept,
				Price:       quote.Price,
				Qty:         minQty(quote.Qty, available),
				Side:        quote.Side,
				SolverCalls: scanned,
			}
		}
	} else {
		var best *model.Order
		for i := range far {
			offer := &far[i]
			if !crosses(quote, offer.Price) {
				continue
			}
			if best == nil || betterPrice(quote.Side, offer.Price, best.Price) {
				best = offer
			}
		}
		if best != nil {
			return model.Action{
				Type:        model.ActionAccept,
				OrderID:     best.ID,
				Price:       best.Price,
				Qty:         minQty(quote.Qty, best.Qty),
				Side:        quote.Side,
				SolverCalls: scanned,
			}
		}
	}

	return model.Action{
		Type:        model.ActionPost,
		Price:       quote.Price,
		Qty:         quote.Qty,
		Side:        quote.Side,
		SolverCalls: scanned,
	}
}
