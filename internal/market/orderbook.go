package market

import (
	"errors"

	"github.com/tidwall/btree"

	"p2p-market-sim/internal/model"
)

// ErrInvalidOrder rejects submissions with non-positive quantity or a
// negative price. Rejected submissions leave the book untouched.
var ErrInvalidOrder = errors.New("order must have qty > 0 and price >= 0")

// priceLevel holds the FIFO queue of resting orders at one price.
// Orders are appended on arrival, so slice order is time priority.
type priceLevel struct {
	price  float64
	orders []*model.Order
}

type priceLevels = btree.BTreeG[*priceLevel]

// OrderBook is a continuous double auction with price-time priority.
// Incoming orders match against the far side at resting (maker) prices;
// the remainder rests. All prices are quantized to the tick grid on the
// way in. Not safe for concurrent use.
type OrderBook struct {
	tick float64

	bids *priceLevels // sorted highest price first
	asks *priceLevels // sorted lowest price first

	// Direct handle lookup for cancel/modify.
	orders map[uint64]*model.Order

	nextID  uint64
	nextSeq uint64

	// Executions since the last ClearTrades call.
	trades []model.Trade
}

// New builds an empty book on the default tick grid.
func New() *OrderBook {
	return NewWithTick(model.DefaultTickCPerKWh)
}

// NewWithTick builds an empty book with an explicit tick size.
// A non-positive tick disables price quantization.
func NewWithTick(tick float64) *OrderBook {
	return &OrderBook{
		tick:   tick,
		bids:   newBidTree(),
		asks:   newAskTree(),
		orders: make(map[uint64]*model.Order),
	}
}

// Best bid first.
func newBidTree() *priceLevels {
	return btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price > b.price
	})
}

// Best ask first.
func newAskTree() *priceLevels {
	return btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price < b.price
	})
}

// Tick returns the book's price grid spacing.
func (ob *OrderBook) Tick() float64 {
	return ob.tick
}

// Submit quantizes the price, matches the order against resting liquidity
// and rests any remainder. It returns the assigned order ID and the trades
// this submission produced. The ID stays valid until the order fully fills
// or is cancelled.
func (ob *OrderBook) Submit(owner string, side model.Side, price, qty float64) (uint64, []model.Trade, error) {
	if qty <= 0 || price < 0 {
		return 0, nil, ErrInvalidOrder
	}
	ob.nextID++
	ob.nextSeq++
	o := &model.Order{
		ID:    ob.nextID,
		Price: model.QuantizePrice(price, ob.tick),
		Qty:   qty,
		Side:  side,
		Owner: owner,
		Seq:   ob.nextSeq,
	}
	trades := ob.match(o)
	if o.Qty > 0 {
		ob.rest(o)
	}
	ob.trades = append(ob.trades, trades...)
	return o.ID, trades, nil
}

// match sweeps the far side while prices cross, filling in price-time
// priority. Every fill executes at the resting order's price.
func (ob *OrderBook) match(taker *model.Order) []model.Trade {
	far := ob.asks
	crosses := func(restingPrice float64) bool { return taker.Price >= restingPrice }
	if taker.Side == model.Sell {
		far = ob.bids
		crosses = func(restingPrice float64) bool { return taker.Price <= restingPrice }
	}

	var trades []model.Trade
	for taker.Qty > 0 {
		level, ok := far.MinMut()
		if !ok || !crosses(level.price) {
			break
		}

		var i int
		for i = 0; i < len(level.orders) && taker.Qty > 0; i++ {
			maker := level.orders[i]
			matched := maker.Qty
			if taker.Qty < matched {
				matched = taker.Qty
			}
			maker.Qty -= matched
			taker.Qty -= matched
			trades = append(trades, ob.makeTrade(taker, maker, matched))
			if maker.Qty > 0 {
				break
			}
			delete(ob.orders, maker.ID)
		}
		// i counts fully consumed makers; a partially filled maker breaks
		// out before the increment and stays at the front of the queue.
		level.orders = level.orders[i:]
		if len(level.orders) == 0 {
			far.Delete(level)
		}
	}
	return trades
}

// makeTrade records a fill at the maker's resting price, preserving both
// sides' quoted prices for welfare accounting.
func (ob *OrderBook) makeTrade(taker, maker *model.Order, qty float64) model.Trade {
	t := model.Trade{
		Price:        maker.Price,
		Qty:          qty,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
	}
	if taker.Side == model.Buy {
		t.Buyer = taker.Owner
		t.Seller = maker.Owner
		t.BidPrice = taker.Price
		t.AskPrice = maker.Price
	} else {
		t.Buyer = maker.Owner
		t.Seller = taker.Owner
		t.BidPrice = maker.Price
		t.AskPrice = taker.Price
	}
	return t
}

// rest queues the order at its price level, creating the level if needed.
func (ob *OrderBook) rest(o *model.Order) {
	tree := ob.sideTree(o.Side)
	if level, ok := tree.GetMut(&priceLevel{price: o.Price}); ok {
		level.orders = append(level.orders, o)
	} else {
		tree.Set(&priceLevel{price: o.Price, orders: []*model.Order{o}})
	}
	ob.orders[o.ID] = o
}

func (ob *OrderBook) sideTree(side model.Side) *priceLevels {
	if side == model.Buy {
		return ob.bids
	}
	return ob.asks
}

// Cancel removes a resting order. It returns false when the ID is unknown,
// which includes orders that already filled completely.
func (ob *OrderBook) Cancel(id uint64) bool {
	o, ok := ob.orders[id]
	if !ok {
		return false
	}
	ob.unlink(o)
	return true
}

func (ob *OrderBook) unlink(o *model.Order) {
	tree := ob.sideTree(o.Side)
	if level, ok := tree.GetMut(&priceLevel{price: o.Price}); ok {
		for i, q := range level.orders {
			if q.ID == o.ID {
				level.orders = append(level.orders[:i], level.orders[i+1:]...)
				break
			}
		}
		if len(level.orders) == 0 {
			tree.Delete(level)
		}
	}
	delete(ob.orders, o.ID)
}

// Modify amends a resting order. A quantity-only change edits the order in
// place and keeps its queue position; a non-positive quantity cancels it.
// Changing the price re-prices via cancel-then-resubmit: the order loses
// its queue position, gets a fresh ID, and may trade immediately, so the
// caller gets any resulting fills back. Returns false when the ID is
// unknown.
func (ob *OrderBook) Modify(id uint64, newQty, newPrice *float64) (bool, []model.Trade) {
	o, ok := ob.orders[id]
	if !ok {
		return false, nil
	}

	if newPrice != nil && model.QuantizePrice(*newPrice, ob.tick) != o.Price {
		qty := o.Qty
		if newQty != nil {
			qty = *newQty
		}
		ob.unlink(o)
		if qty <= 0 {
			return true, nil
		}
		_, trades, err := ob.Submit(o.Owner, o.Side, *newPrice, qty)
		if err != nil {
			return true, nil
		}
		return true, trades
	}

	if newQty != nil {
		if *newQty <= 0 {
			ob.unlink(o)
			return true, nil
		}
		o.Qty = *newQty
	}
	return true, nil
}

// BestBid returns the highest resting buy price.
func (ob *OrderBook) BestBid() (float64, bool) {
	level, ok := ob.bids.Min()
	if !ok {
		return 0, false
	}
	return level.price, true
}

// BestAsk returns the lowest resting sell price.
func (ob *OrderBook) BestAsk() (float64, bool) {
	level, ok := ob.asks.Min()
	if !ok {
		return 0, false
	}
	return level.price, true
}

// Snapshot is a point-in-time copy of the resting book in priority order:
// bids best (highest) first, asks best (lowest) first. Mutating the copy
// does not touch the live book.
type Snapshot struct {
	Bids []model.Order
	Asks []model.Order
}

// Top keeps only the first n orders per side, the ticker view.
func (s Snapshot) Top(n int) Snapshot {
	out := s
	if len(out.Bids) > n {
		out.Bids = out.Bids[:n]
	}
	if len(out.Asks) > n {
		out.Asks = out.Asks[:n]
	}
	return out
}

// Snapshot copies the resting book.
func (ob *OrderBook) Snapshot() Snapshot {
	return Snapshot{
		Bids: copyLevels(ob.bids),
		Asks: copyLevels(ob.asks),
	}
}

func copyLevels(tree *priceLevels) []model.Order {
	var out []model.Order
	tree.Scan(func(level *priceLevel) bool {
		for _, o := range level.orders {
			out = append(out, *o)
		}
		return true
	})
	return out
}

// ClearTrades drains and returns the accumulated trade log.
func (ob *OrderBook) ClearTrades() []model.Trade {
	out := ob.trades
	ob.trades = nil
	return out
}

// ReplaceResting swaps the whole resting state for the given orders,
// keeping their IDs and arrival sequence so time priority carries over.
// Batch clearing uses this to install the residual book. Orders are
// rested without matching: under a binding feeder constraint residuals
// can cross, and the next batch re-clears them.
func (ob *OrderBook) ReplaceResting(bids, asks []model.Order) {
	ob.bids = newBidTree()
	ob.asks = newAskTree()
	ob.orders = make(map[uint64]*model.Order)
	for _, o := range bids {
		ob.restExisting(o)
	}
	for _, o := range asks {
		ob.restExisting(o)
	}
}

func (ob *OrderBook) restExisting(o model.Order) {
	if o.Qty <= 0 {
		return
	}
	if o.ID > ob.nextID {
		ob.nextID = o.ID
	}
	if o.Seq > ob.nextSeq {
		ob.nextSeq = o.Seq
	}
	ob.rest(&o)
}
