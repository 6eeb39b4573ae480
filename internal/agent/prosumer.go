package agent

import (
	"math"
	"math/rand"

	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

// Quotes smaller than this are treated as no position.
const netEpsilonKWh = 1e-9

// ProsumerParams sets how a household turns its net position into a price.
// Quotes anchor on the retail tariff: buyers quote RetailPrice + BuyMarkup,
// sellers RetailPrice - SellDiscount, both in cents/kWh, with gaussian
// noise of QuoteSigma cents added per interval.
type ProsumerParams struct {
	RetailPrice  float64
	BuyMarkup    float64
	SellDiscount float64
	QuoteSigma   float64
}

// DefaultProsumerParams anchors quotes one cent either side of a 16.3
// cents/kWh retail tariff.
func DefaultProsumerParams() ProsumerParams {
	return ProsumerParams{
		RetailPrice:  16.3,
		BuyMarkup:    1.0,
		SellDiscount: 1.0,
		QuoteSigma:   0.5,
	}
}

// Prosumer is a household with load, PV and optionally an EV and a
// battery. It quotes its net position each interval and, as a baseline
// strategy, always posts. Each prosumer carries its own seeded RNG so
// cells replay bit-identically.
type Prosumer struct {
	id       string
	params   ProsumerParams
	profiles model.ProfileSet
	battery  *model.Battery
	rng      *rand.Rand

	// quoter, when set, replaces profile-derived quoting entirely.
	quoter func(t int) (model.Quote, bool)

	// One quote per interval: noise is rolled and the battery stepped
	// exactly once even when MakeQuote is consulted again for the same t.
	quoteT  int
	quote   model.Quote
	quoteOK bool
}

// NewProsumer builds a household agent with its own RNG stream.
func NewProsumer(id string, seed int64, profiles model.ProfileSet, params ProsumerParams) *Prosumer {
	return &Prosumer{
		id:       id,
		params:   params,
		profiles: profiles,
		rng:      rand.New(rand.NewSource(seed)),
		quoteT:   -1,
	}
}

// AttachBattery gives the household a battery that self-consumption
// dispatch draws on before anything is quoted to the market.
func (p *Prosumer) AttachBattery(b *model.Battery) {
	p.battery = b
}

func (p *Prosumer) ID() string {
	return p.id
}

func (p *Prosumer) Type() string {
	return "prosumer"
}

// NetKWh is the raw profile position for interval t, before any battery
// dispatch: positive buys, negative sells.
func (p *Prosumer) NetKWh(t int) float64 {
	return p.profiles.NetKWh(t)
}

// MakeQuote returns the interval's quote, computing it on first call and
// replaying it on repeats.
func (p *Prosumer) MakeQuote(t int) (model.Quote, bool) {
	if t == p.quoteT {
		return p.quote, p.quoteOK
	}
	p.quoteT = t
	if p.quoter != nil {
		p.quote, p.quoteOK = p.quoter(t)
	} else {
		p.quote, p.quoteOK = p.profileQuote(t)
	}
	return p.quote, p.quoteOK
}

func (p *Prosumer) profileQuote(t int) (model.Quote, bool) {
	net := p.NetKWh(t)
	if p.battery != nil {
		net = p.dispatchBattery(net)
	}
	if math.Abs(net) <= netEpsilonKWh {
		return model.Quote{}, false
	}
	noise := p.rng.NormFloat64() * p.params.QuoteSigma
	if net > 0 {
		price := p.params.RetailPrice + p.params.BuyMarkup + noise
		return model.Quote{Price: math.Max(0, price), Qty: net, Side: model.Buy}, true
	}
	price := p.params.RetailPrice - p.params.SellDiscount + noise
	return model.Quote{Price: math.Max(0, price), Qty: -net, Side: model.Sell}, true
}

// dispatchBattery runs simple self-consumption: discharge against a
// deficit, charge from a surplus, and quote only what remains.
func (p *Prosumer) dispatchBattery(net float64) float64 {
	dtH := p.profiles.StepHours()
	switch {
	case net > 0:
		flows, err := p.battery.Step(0, net/dtH, dtH)
		if err != nil {
			return net
		}
		return net - flows.DischargeKW*dtH
	case net < 0:
		flows, err := p.battery.Step(-net/dtH, 0, dtH)
		if err != nil {
			return net
		}
		return net + flows.ChargeKW*dtH
	}
	return net
}

// Decide posts the interval's quote. Strategies embed Prosumer and
// override this with something smarter.
func (p *Prosumer) Decide(snap market.Snapshot, t int) model.Action {
	quote, ok := p.MakeQuote(t)
	if !ok {
		return model.Action{Type: model.ActionNone}
	}
	return model.Action{
		Type:  model.ActionPost,
		Price: quote.Price,
		Qty:   quote.Qty,
		Side:  quote.Side,
	}
}
