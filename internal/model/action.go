package model

// ActionType labels what an agent decided to do in an interval.
// Keep these values stable; they are intended for CSV output.
type ActionType string

const (
	ActionNone   ActionType = "none"
	ActionPost   ActionType = "post"
	ActionAccept ActionType = "accept"
)

// Action is the outcome of one agent decision. Accept targets resting
// liquidity and is executed as a marketable limit order at Price; post
// rests a new order; none does nothing.
//
// OffersSeen, SolverCalls and LearnerSteps count the work the decision
// took and flow straight into the decision log.
type Action struct {
	Type    ActionType
	OrderID uint64 // maker targeted by an accept, when a single one is known
	Price   float64
	Qty     float64
	Side    Side

	OffersSeen   int
	SolverCalls  int
	LearnerSteps int
}

// Executable reports whether the action carries a submittable order.
func (a Action) Executable() bool {
	return a.Type != ActionNone && a.Qty > 0 && a.Price >= 0
}
