// Package monitor implements the Position Monitor (C7): the per-activation
// owner of the live legs and the exit chain that evaluates them on every
// tick. Grounded on the teacher's simCloseTrade/checkExits tick loop in
// internal/backtest/engine/executor.go, generalized from a single
// backtest-wide loop into a reusable per-activation object the engine can
// start, feed ticks, and stop independently across auto-restart cycles.
package monitor

import (
	"sort"
	"time"

	"github.com/contactkeval/option-replay/internal/candle"
	"github.com/contactkeval/option-replay/internal/exit"
	"github.com/contactkeval/option-replay/internal/position"
)

// Monitor owns the legs of one simulated strategy activation plus the exit
// chain that decides when to close them. It is not safe for concurrent use
// across goroutines; each backtest day/activation owns its own Monitor.
//
// legs is the persistent, order-stable backing store: AddLeg/RemoveLeg are
// setup/teardown operations that may reslice or rebuild the index maps, but
// OnTick — the per-tick hot path — only ever mutates a leg's CurrentPrice
// in place through tokenIndex/symbolIndex, never allocates or sorts a new
// container.
type Monitor struct {
	executionID string
	chain       *exit.Chain
	ctx         *exit.Context

	legs        []position.Leg
	tokenIndex  map[int64]int
	symbolIndex map[string]int

	active bool
}

// New constructs a Monitor for one strategy activation. directionMultiplier
// is -1 for SHORT strategies and +1 for LONG, per exit.Context convention.
func New(executionID string, directionMultiplier float64, chain *exit.Chain, callbacks exit.Callbacks, legCap int) *Monitor {
	ctx := exit.NewContext(executionID, directionMultiplier, legCap)
	ctx.Callbacks = callbacks
	return &Monitor{
		executionID: executionID,
		chain:       chain,
		ctx:         ctx,
		legs:        make([]position.Leg, 0, legCap),
		tokenIndex:  make(map[int64]int, legCap),
		symbolIndex: make(map[string]int, legCap),
		active:      true,
	}
}

// AddLeg registers a new live leg, inserted in symbol order so the hot path
// never has to sort. Not called after the activation starts ticking.
func (m *Monitor) AddLeg(leg position.Leg) {
	pos := sort.Search(len(m.legs), func(i int) bool { return m.legs[i].Symbol >= leg.Symbol })
	m.legs = append(m.legs, position.Leg{})
	copy(m.legs[pos+1:], m.legs[pos:])
	m.legs[pos] = leg
	m.reindexFrom(pos)
}

// RemoveLeg drops a leg from monitoring, e.g. after an individual-leg exit
// or replacement. It is a no-op if the symbol is not currently monitored.
// Like AddLeg, this is an off-hot-path structural change, not a per-tick
// operation.
func (m *Monitor) RemoveLeg(symbol string) {
	idx, ok := m.symbolIndex[symbol]
	if !ok {
		return
	}
	token := m.legs[idx].Token
	m.legs = append(m.legs[:idx], m.legs[idx+1:]...)
	delete(m.symbolIndex, symbol)
	delete(m.tokenIndex, token)
	m.reindexFrom(idx)
}

// reindexFrom rebuilds tokenIndex/symbolIndex entries for legs[from:] after
// an insertion or removal shifted their positions.
func (m *Monitor) reindexFrom(from int) {
	for i := from; i < len(m.legs); i++ {
		m.tokenIndex[m.legs[i].Token] = i
		m.symbolIndex[m.legs[i].Symbol] = i
	}
}

// Legs returns the currently monitored legs, already held in symbol order.
func (m *Monitor) Legs() []position.Leg {
	return m.legs
}

// Active reports whether this activation is still being monitored. It
// becomes false once an ExitAll decision has been handled.
func (m *Monitor) Active() bool {
	return m.active
}

// Stop deactivates the monitor without firing any callback, used when the
// engine forces closure outside the normal exit-chain path (e.g. data
// exhaustion mid-day).
func (m *Monitor) Stop() {
	m.active = false
}

// OnTick updates the legs whose token matches the tick's CE/PE token with
// the tick's last-traded price, recomputes the shared exit context, and
// evaluates the exit chain once. It returns the resulting decision (None if
// nothing fired) and fires the matching callback synchronously before
// returning, mirroring the teacher's in-loop checkExits call.
func (m *Monitor) OnTick(tick candle.MergedTick) exit.Decision {
	if !m.active {
		return exit.Decision{Kind: exit.None}
	}

	if idx, ok := m.tokenIndex[tick.CeToken]; ok {
		m.legs[idx].CurrentPrice = tick.CeLTP
	}
	if idx, ok := m.tokenIndex[tick.PeToken]; ok {
		m.legs[idx].CurrentPrice = tick.PeLTP
	}

	m.ctx.Reset(tick.Timestamp, m.legs)
	decision := m.chain.Evaluate(m.ctx)

	switch decision.Kind {
	case exit.ExitAll:
		m.active = false
		if m.ctx.Callbacks.ExitAll != nil {
			m.ctx.Callbacks.ExitAll(decision.Reason)
		}
	case exit.ExitLeg:
		m.RemoveLeg(decision.Symbol)
		if m.ctx.Callbacks.IndividualLegExit != nil {
			m.ctx.Callbacks.IndividualLegExit(decision.Symbol, decision.Reason)
		}
	case exit.ReplaceLeg:
		if m.ctx.Callbacks.LegReplacement != nil {
			m.ctx.Callbacks.LegReplacement(decision.Symbol, decision.Reason)
		}
	}

	return decision
}

// CumulativePnL exposes the context's last-computed P&L, used by the engine
// to stamp the closing trade without recomputing it.
func (m *Monitor) CumulativePnL() float64 {
	return m.ctx.CumulativePnL
}

// CombinedLTP exposes the context's last-computed combined premium.
func (m *Monitor) CombinedLTP() float64 {
	return m.ctx.CombinedLTP
}

// ConfigurePointsMode sets the absolute-points target/stop thresholds the
// PointsBasedTarget/PointsBasedStopLoss strategies read from the context.
// It is a no-op pair when the chain was built for premium mode.
func (m *Monitor) ConfigurePointsMode(targetPoints, stopLossPoints float64) {
	m.ctx.CumulativeTargetPoints = targetPoints
	m.ctx.CumulativeStopPoints = stopLossPoints
}

// ConfigurePremiumMode sets the combined-premium target/stop-loss levels
// the PremiumBasedExit strategy reads from the context, computed once at
// entry per spec.md §4.5's premium round-trip invariant:
// targetPremiumLevel < entryPremium < stopLossPremiumLevel.
func (m *Monitor) ConfigurePremiumMode(entryPremium, targetDecayPct, stopLossExpansionPct float64) {
	m.ctx.EntryPremium = entryPremium
	m.ctx.TargetPremiumLevel = entryPremium * (1 - targetDecayPct/100)
	m.ctx.StopLossPremiumLevel = entryPremium * (1 + stopLossExpansionPct/100)
}

// SetForcedExitTime sets the cutoff the ForcedExitStrategy compares every
// tick's timestamp against.
func (m *Monitor) SetForcedExitTime(cutoff time.Time) {
	m.ctx.ForcedExitTime = cutoff
}
