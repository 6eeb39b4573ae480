package agent

import (
	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

// DefaultEpsilon is the learner's exploration rate.
const DefaultEpsilon = 0.1

// DefaultArmsCents is the learner's offset grid around its anchor quote.
func DefaultArmsCents() []float64 {
	return []float64{-2, -1, 0, 1, 2}
}

// NoRegretLearner treats the price offset as a bandit arm. Each interval
// it picks an arm epsilon-greedily, shifts its quote by that many cents
// toward or away from the market, and checks whether the shifted price
// could execute against the book. Execution feasibility is the reward;
// arm values track the running mean. Feasible decisions accept the best
// crossing offer, infeasible ones post the unshifted anchor quote.
type NoRegretLearner struct {
	Prosumer
	epsilon float64
	arms    []float64
	counts  []int
	values  []float64
}

// NewNoRegretLearner builds a learner. A non-positive epsilon falls back
// to DefaultEpsilon and nil arms to DefaultArmsCents.
func NewNoRegretLearner(id string, seed int64, profiles model.ProfileSet, params ProsumerParams, epsilon float64, armsCents []float64) *NoRegretLearner {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	if len(armsCents) == 0 {
		armsCents = DefaultArmsCents()
	}
	return &NoRegretLearner{
		Prosumer: *NewProsumer(id, seed, profiles, params),
		epsilon:  epsilon,
		arms:     armsCents,
		counts:   make([]int, len(armsCents)),
		values:   make([]float64, len(armsCents)),
	}
}

func (l *NoRegretLearner) Type() string {
	return "learner"
}

// ArmValues returns a copy of the running mean reward per arm.
func (l *NoRegretLearner) ArmValues() []float64 {
	return append([]float64(nil), l.values...)
}

func (l *NoRegretLearner) chooseArm() int {
	if l.rng.Float64() < l.epsilon {
		return l.rng.Intn(len(l.arms))
	}
	best := 0
	for i := 1; i < len(l.values); i++ {
		if l.values[i] > l.values[best] {
			best = i
		}
	}
	return best
}

func (l *NoRegretLearner) updateArm(idx int, reward float64) {
	l.counts[idx]++
	l.values[idx] += (reward - l.values[idx]) / float64(l.counts[idx])
}

func (l *NoRegretLearner) Decide(snap market.Snapshot, t int) model.Action {
	quote, ok := l.MakeQuote(t)
	if !ok {
		return model.Action{Type: model.ActionNone}
	}

	idx := l.chooseArm()
	shifted := quote
	if quote.Side == model.Buy {
		shifted.Price = quote.Price + l.arms[idx]
	} else {
		shifted.Price = quote.Price - l.arms[idx]
	}
	if shifted.Price < 0 {
		shifted.Price = 0
	}

	// Probe: could the shifted price execute right now?
	var best *model.Order
	far := farSide(snap, quote.Side)
	for i := range far {
		offer := &far[i]
		if !crosses(shifted, offer.Price) {
			continue
		}
		if best == nil || betterPrice(quote.Side, offer.Price, best.Price) {
			best = offer
		}
	}

	if best != nil {
		l.updateArm(idx, 1)
		return model.Action{
			Type:         model.ActionAccept,
			OrderID:      best.ID,
			Price:        best.Price,
			Qty:          minQty(quote.Qty, best.Qty),
			Side:         quote.Side,
			LearnerSteps: 1,
		}
	}
	l.updateArm(idx, 0)
	return model.Action{
		Type:         model.ActionPost,
		Price:        quote.Price,
		Qty:          quote.Qty,
		Side:         quote.Side,
		LearnerSteps: 1,
	}
}
