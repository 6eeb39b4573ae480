// Package clearing runs the market's discrete-time loop: one interval at
// a time, every agent decides once, and the chosen mechanism turns those
// decisions into trades.
package clearing

import (
	"fmt"
	"time"

	"p2p-market-sim/internal/agent"
	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

// InfoSet controls how much of the book agents observe when deciding.
type InfoSet string

const (
	// InfoBook shows the full depth snapshot.
	InfoBook InfoSet = "book"
	// InfoTicker shows only the best order per side.
	InfoTicker InfoSet = "ticker"
)

// DecisionObserver receives every agent decision as it happens, with the
// wall time the decision took. The interval loop itself never blocks on
// it, so keep implementations cheap.
type DecisionObserver func(t int, a agent.Agent, act model.Action, wall time.Duration)

// Engine advances a book through intervals. FeederLimitKW applies only
// to batch clearing, where all matches share the feeder; continuous
// matching has no aggregate constraint.
type Engine struct {
	Book          *market.OrderBook
	InfoSet       InfoSet
	FeederLimitKW float64
	StepMinutes   int
	Observer      DecisionObserver

	// Pending-order numbering for batch intervals, kept above anything
	// the book has issued.
	batchID  uint64
	batchSeq uint64
}

func NewEngine(book *market.OrderBook) *Engine {
	return &Engine{
		Book:        book,
		InfoSet:     InfoBook,
		StepMinutes: 5,
	}
}

// Result aggregates one interval. The book-start and posted order copies
// exist so welfare bounds can be computed over exactly the orders that
// were live this interval.
type Result struct {
	Interval int

	Trades        int
	TradedKWh     float64
	PostedKWh     float64
	PostedBuyKWh  float64
	PostedSellKWh float64

	TradesDetail []model.Trade

	BookBidsStart []model.Order
	BookAsksStart []model.Order
	PostedBids    []model.Order
	PostedAsks    []model.Order
}

// StepInterval runs one continuous-double-auction interval: agents act
// in sequence, each seeing the book as the previous agents left it.
// Accepts execute immediately as marketable limits at the maker's
// price; posts rest. The interval's trades drain from the book log.
func (e *Engine) StepInterval(t int, agents []agent.Agent) (Result, error) {
	res := Result{Interval: t}
	start := e.Book.Snapshot()
	res.BookBidsStart = start.Bids
	res.BookAsksStart = start.Asks

	for _, a := range agents {
		act := e.decide(a, e.view(e.Book.Snapshot()), t)

		order, ok := e.orderFor(a, act, t)
		if !ok {
			continue
		}
		id, _, err := e.Book.Submit(a.ID(), order.Side, order.Price, order.Qty)
		if err != nil {
			return Result{}, fmt.Errorf("interval %d agent %s submit: %w", t, a.ID(), err)
		}
		res.notePosted(model.Order{
			ID:    id,
			Price: model.QuantizePrice(order.Price, e.Book.Tick()),
			Qty:   order.Qty,
			Side:  order.Side,
			Owner: a.ID(),
		})
	}

	res.TradesDetail = e.Book.ClearTrades()
	res.Trades = len(res.TradesDetail)
	for _, tr := range res.TradesDetail {
		res.TradedKWh += tr.Qty
	}
	return res, nil
}

// StepIntervalCall runs one batch interval: every agent decides against
// the same interval-start snapshot, nothing executes until all have
// acted, then one call auction clears the union of the resting book and
// the interval's submissions. Residual orders become the next book.
func (e *Engine) StepIntervalCall(t int, agents []agent.Agent) (Result, error) {
	res := Result{Interval: t}
	start := e.Book.Snapshot()
	res.BookBidsStart = start.Bids
	res.BookAsksStart = start.Asks
	view := e.view(start)

	e.syncBatchCounters(start)
	var pendingBids, pendingAsks []model.Order
	for _, a := range agents {
		act := e.decide(a, view, t)

		order, ok := e.orderFor(a, act, t)
		if !ok {
			continue
		}
		e.batchID++
		e.batchSeq++
		o := model.Order{
			ID:    e.batchID,
			Price: model.QuantizePrice(order.Price, e.Book.Tick()),
			Qty:   order.Qty,
			Side:  order.Side,
			Owner: a.ID(),
			Seq:   e.batchSeq,
		}
		if o.Side == model.Buy {
			pendingBids = append(pendingBids, o)
		} else {
			pendingAsks = append(pendingAsks, o)
		}
		res.notePosted(o)
	}

	allBids := append(append([]model.Order(nil), start.Bids...), pendingBids...)
	allAsks := append(append([]model.Order(nil), start.Asks...), pendingAsks...)
	out := market.MatchBatch(allBids, allAsks, market.BatchOptions{
		FeederLimitKW: e.FeederLimitKW,
		StepMinutes:   e.StepMinutes,
	})
	e.Book.ReplaceResting(out.RestingBids, out.RestingAsks)

	res.TradesDetail = out.Trades
	res.Trades = len(out.Trades)
	res.TradedKWh = out.TradedKWh
	return res, nil
}

// decide times one agent decision and reports it to the observer.
func (e *Engine) decide(a agent.Agent, snap market.Snapshot, t int) model.Action {
	began := time.Now()
	act := a.Decide(snap, t)
	if e.Observer != nil {
		e.Observer(t, a, act, time.Since(began))
	}
	return act
}

// orderFor resolves an action to the order actually submitted. Accepts
// and posts that carry a price and quantity submit as-is; anything else
// falls back to the agent's quote, which replays memoized, so a decision
// and its fallback always agree.
func (e *Engine) orderFor(a agent.Agent, act model.Action, t int) (model.Quote, bool) {
	if act.Executable() {
		return model.Quote{Price: act.Price, Qty: act.Qty, Side: act.Side}, true
	}
	return a.MakeQuote(t)
}

// view applies the engine's information set to a snapshot.
func (e *Engine) view(snap market.Snapshot) market.Snapshot {
	if e.InfoSet == InfoTicker {
		return snap.Top(1)
	}
	return snap
}

// notePosted accumulates posted volume. Continuous intervals append the
// posted order copies here too, one per submission.
func (r *Result) notePosted(o model.Order) {
	if o.Side == model.Buy {
		r.PostedBuyKWh += o.Qty
		r.PostedBids = append(r.PostedBids, o)
	} else {
		r.PostedSellKWh += o.Qty
		r.PostedAsks = append(r.PostedAsks, o)
	}
	r.PostedKWh += o.Qty
}

// syncBatchCounters keeps pending numbering above resting orders after
// any mix of mechanisms touched the book.
func (e *Engine) syncBatchCounters(start market.Snapshot) {
	bump := func(orders []model.Order) {
		for _, o := range orders {
			if o.ID > e.batchID {
				e.batchID = o.ID
			}
			if o.Seq > e.batchSeq {
				e.batchSeq = o.Seq
			}
		}
	}
	bump(start.Bids)
	bump(start.Asks)
}
