package market

import (
	"sort"

	"p2p-market-sim/internal/model"
)

// BatchOptions controls one batch match.
type BatchOptions struct {
	// FeederLimitKW caps total matched energy at the feeder's power rating
	// times the interval length. Zero or negative disables the cap.
	FeederLimitKW float64
	// StepMinutes is the interval length behind the energy cap (5 when unset).
	StepMinutes int
}

// BatchResult is the outcome of one batch match.
type BatchResult struct {
	Trades      []model.Trade
	RestingBids []model.Order // residual demand, becomes the next resting book
	RestingAsks []model.Order // residual supply
	TradedKWh   float64
}

// MatchBatch clears all supplied orders in one call auction: bids sorted
// from highest price, asks from lowest, paired while they cross. Every
// trade executes at the ask's quoted price. Arrival sequence breaks price
// ties. Inputs are not mutated; residual quantities come back as fresh
// slices.
func MatchBatch(bids, asks []model.Order, opts BatchOptions) BatchResult {
	bs := append([]model.Order(nil), bids...)
	as := append([]model.Order(nil), asks...)
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Price != bs[j].Price {
			return bs[i].Price > bs[j].Price
		}
		return bs[i].Seq < bs[j].Seq
	})
	sort.Slice(as, func(i, j int) bool {
		if as[i].Price != as[j].Price {
			return as[i].Price < as[j].Price
		}
		return as[i].Seq < as[j].Seq
	})

	energyCap := -1.0
	if opts.FeederLimitKW > 0 {
		step := opts.StepMinutes
		if step <= 0 {
			step = 5
		}
		energyCap = opts.FeederLimitKW * float64(step) / 60
	}

	var res BatchResult
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
			remaining := energyCap - res.TradedKWh
			if remaining <= 0 {
				break
			}
			if qty > remaining {
				qty = remaining
			}
		}
		res.Trades = append(res.Trades, model.Trade{
			Price:        a.Price,
			Qty:          qty,
			Buyer:        b.Owner,
			Seller:       a.Owner,
			MakerOrderID: a.ID,
			TakerOrderID: b.ID,
			BidPrice:     b.Price,
			AskPrice:     a.Price,
		})
		res.TradedKWh += qty
		b.Qty -= qty
		a.Qty -= qty
		if b.Qty <= 0 {
			i++
		}
		if a.Qty <= 0 {
			j++
		}
	}

	for ; i < len(bs); i++ {
		if bs[i].Qty > 0 {
			res.RestingBids = append(res.RestingBids, bs[i])
		}
	}
	for ; j < len(as); j++ {
		if as[j].Qty > 0 {
			res.RestingAsks = append(res.RestingAsks, as[j])
		}
	}
	return res
}
