package agent

import (
	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

// SearchRule bounds how a satisficer examines the far side of the book.
// Scan looks at offers in book (price-time) order and returns an accept
// action when the rule is satisfied; either way OffersSeen records how
// deep the scan went.
type SearchRule interface {
	Name() string
	Scan(q model.Quote, far []model.Order) (model.Action, bool)
}

// Satisficer trades effort for outcome: instead of the optimizer's full
// sweep it runs one bounded search rule and settles for what that finds.
type Satisficer struct {
	Prosumer
	rule SearchRule
}

func NewSatisficer(id string, seed int64, profiles model.ProfileSet, params ProsumerParams, rule SearchRule) *Satisficer {
	return &Satisficer{
		Prosumer: *NewProsumer(id, seed, profiles, params),
		rule:     rule,
	}
}

func (s *Satisficer) Type() string {
	return "satisficer"
}

// Rule exposes the active search rule, mostly for listings and logs.
func (s *Satisficer) Rule() SearchRule {
	return s.rule
}

func (s *Satisficer) Decide(snap market.Snapshot, t int) model.Action {
	quote, ok := s.MakeQuote(t)
	if !ok {
		return model.Action{Type: model.ActionNone}
	}
	act, accepted := s.rule.Scan(quote, farSide(snap, quote.Side))
	if accepted {
		return act
	}
	return model.Action{
		Type:       model.ActionPost,
		Price:      quote.Price,
		Qty:        quote.Qty,
		Side:       quote.Side,
		OffersSeen: act.OffersSeen,
	}
}

// BandRule accepts the first crossing offer whose price stays within
// TauPercent of the quote price. The scan stops at the first hit, so
// OffersSeen is the acceptance depth, or the full depth when nothing
// qualifies.
type BandRule struct {
	TauPercent float64
}

func (r BandRule) Name() string { return "band" }

func (r BandRule) Scan(q model.Quote, far []model.Order) (model.Action, bool) {
	lo := q.Price * (1 - r.TauPercent/100)
	hi := q.Price * (1 + r.TauPercent/100)
	for i := range far {
		offer := &far[i]
		if !crosses(q, offer.Price) {
			continue
		}
		if offer.Price < lo || offer.Price > hi {
			continue
		}
		return model.Action{
			Type:       model.ActionAccept,
			OrderID:    offer.ID,
			Price:      offer.Price,
			Qty:        minQty(q.Qty, offer.Qty),
			Side:       q.Side,
			OffersSeen: i + 1,
		}, true
	}
	return model.Action{OffersSeen: len(far)}, false
}

// KSearchRule inspects only the first K offers and takes the best-priced
// crossing one among them. OffersSeen is always min(K, depth).
type KSearchRule struct {
	K int
}

func (r KSearchRule) Name() string { return "k_search" }

func (r KSearchRule) Scan(q model.Quote, far []model.Order) (model.Action, bool) {
	depth := len(far)
	if r.K < depth {
		depth = r.K
	}
	var best *model.Order
	for i := 0; i < depth; i++ {
		offer := &far[i]
		if !crosses(q, offer.Price) {
			continue
		}
		if best == nil || betterPrice(q.Side, offer.Price, best.Price) {
			best = offer
		}
	}
	if best == nil {
		return model.Action{OffersSeen: depth}, false
	}
	return model.Action{
		Type:       model.ActionAccept,
		OrderID:    best.ID,
		Price:      best.Price,
		Qty:        minQty(q.Qty, best.Qty),
		Side:       q.Side,
		OffersSeen: depth,
	}, true
}

// KGreedyRule sums crossing quantity within the first K offers and
// accepts a cumulative fill at the agent's own quote price.
type KGreedyRule struct {
	K int
}

func (r KGreedyRule) Name() string { return "k_greedy" }

func (r KGreedyRule) Scan(q model.Quote, far []model.Order) (model.Action, bool) {
	depth := len(far)
	if r.K < depth {
		depth = r.K
	}
	var available float64
	for i := 0; i < depth; i++ {
		if crosses(q, far[i].Price) {
			available += far[i].Qty
		}
	}
	if available <= 0 {
		return model.Action{OffersSeen: depth}, false
	}
	return model.Action{
		Type:       model.ActionAccept,
		Price:      q.Price,
		Qty:        minQty(q.Qty, available),
		Side:       q.Side,
		OffersSeen: depth,
	}, true
}
