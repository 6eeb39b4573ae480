package agent

import (
	"math"

	"p2p-market-sim/internal/model"
)

// Zero-intelligence quoting bounds, cents/kWh.
const (
	ziPriceMin = 10.0
	ziPriceMax = 25.0
	ziQtyKWh   = 0.5
)

// ZIConstrained is the zero-intelligence baseline: a uniform random price
// on a fixed band, a fixed quantity, a coin-flip side, and it always
// posts. It ignores profiles entirely and gives the strategy comparisons
// their floor.
type ZIConstrained struct {
	Prosumer
}

func NewZIConstrained(id string, seed int64) *ZIConstrained {
	z := &ZIConstrained{
		Prosumer: *NewProsumer(id, seed, model.ProfileSet{}, DefaultProsumerParams()),
	}
	z.quoter = z.randomQuote
	return z
}

func (z *ZIConstrained) Type() string {
	return "zi"
}

func (z *ZIConstrained) randomQuote(int) (model.Quote, bool) {
	price := ziPriceMin + z.rng.Float64()*(ziPriceMax-ziPriceMin)
	price = math.RoundToEven(price*10) / 10
	side := model.Buy
	if z.rng.Intn(2) == 1 {
		side = model.Sell
	}
	return model.Quote{Price: price, Qty: ziQtyKWh, Side: side}, true
}
