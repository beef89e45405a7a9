// Package exit implements the exit evaluator: a preallocated, per-tick
// reusable context and a prioritized chain of exit rules that reads from
// it. Grounded on the teacher's checkExits cascade in
// internal/backtest/engine/executor.go, generalized from a single
// ordered if-chain into the spec's explicit {priority, evaluate} chain so
// strategies can be composed per request mode.
package exit

import (
	"time"

	"github.com/contactkeval/option-replay/internal/position"
)

// DecisionKind enumerates what an exit strategy decided to do.
type DecisionKind int

const (
	None DecisionKind = iota
	ExitAll
	ExitLeg
	ReplaceLeg
)

// Decision is the outcome of one strategy's evaluation. Symbol is only
// meaningful for ExitLeg/ReplaceLeg.
type Decision struct {
	Kind   DecisionKind
	Reason Reason
	Symbol string
}

// noneDecision is the shared zero-value "nothing to do" result.
var noneDecision = Decision{Kind: None}

// Callbacks are optional capabilities an engine wires into a Context so
// that exit decisions can drive in-process handlers synchronously within
// onTick, per spec.md §4.5/§9.
type Callbacks struct {
	ExitAll           func(reason Reason)
	IndividualLegExit func(symbol string, reason Reason)
	LegReplacement    func(symbol string, reason Reason)
}

// Context is the per-tick reusable snapshot exit strategies read from. It
// is allocated once per strategy activation (see monitor.New) and mutated
// in place on every tick; no field here is ever replaced with a new
// container on the hot path.
type Context struct {
	ExecutionID string

	// DirectionMultiplier is -1 for SHORT strategies (premium decay is
	// profit) and +1 for LONG strategies.
	DirectionMultiplier float64

	CumulativeTargetPoints float64
	CumulativeStopPoints   float64

	EntryPremium          float64
	TargetPremiumLevel    float64
	StopLossPremiumLevel  float64
	ForcedExitTime        time.Time

	// Legs, LegsCount, CumulativePnL and CombinedLTP are recomputed once
	// per tick by the monitor before the chain runs.
	Legs          []position.Leg
	LegsCount     int
	CumulativePnL float64
	CombinedLTP   float64
	TickTime      time.Time

	Callbacks Callbacks
}

// NewContext preallocates a Context for one strategy activation. legCap is
// a hint for the legs slice capacity so the per-tick Reset never grows it.
func NewContext(executionID string, directionMultiplier float64, legCap int) *Context {
	return &Context{
		ExecutionID:         executionID,
		DirectionMultiplier: directionMultiplier,
		Legs:                make([]position.Leg, 0, legCap),
	}
}

// Reset clears the per-tick computed fields in place (no reallocation) and
// recomputes CumulativePnL/CombinedLTP/Legs/LegsCount from legs exactly
// once, shared by every strategy in the chain for this tick.
func (c *Context) Reset(tickTime time.Time, legs []position.Leg) {
	c.TickTime = tickTime
	c.Legs = c.Legs[:0]
	c.CumulativePnL = 0
	c.CombinedLTP = 0

	for _, l := range legs {
		c.Legs = append(c.Legs, l)
		entry, _ := l.EntryPrice.Float64()
		cur, _ := l.CurrentPrice.Float64()
		c.CumulativePnL += (cur - entry) * c.DirectionMultiplier
		c.CombinedLTP += cur
	}
	c.LegsCount = len(c.Legs)
}
