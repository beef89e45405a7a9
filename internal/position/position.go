// Package position defines the simulated option positions and monitored
// legs the exit chain evaluates every tick, generalized from the
// teacher's TradeLeg in internal/backtest/engine/executor.go into the
// entry/current-price pair the spec's SimulatedPosition requires.
package position

import (
	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-replay/internal/candle"
)

// Simulated is one leg of a simulated strategy: immutable identity and
// entry price, mutable current price.
type Simulated struct {
	Symbol          string
	Token           int64
	OptionType      candle.OptionType
	TransactionType candle.TransactionType
	EntryPrice      decimal.Decimal
	Quantity        int
	CurrentPrice    decimal.Decimal
}

// PnL returns the per-leg profit/loss in price points, signed so that a
// SELL leg profits from price decay and a BUY leg profits from price
// appreciation.
func (s Simulated) PnL() decimal.Decimal {
	diff := s.CurrentPrice.Sub(s.EntryPrice)
	if s.TransactionType == candle.Sell {
		diff = diff.Neg()
	}
	return diff
}

// Leg is a monitored position: the unit the Position Monitor (C7) owns,
// keyed by both symbol and token, mutated on every tick and removed on
// exit.
type Leg struct {
	OrderID      string
	Symbol       string
	Token        int64
	EntryPrice   decimal.Decimal
	Quantity     int
	OptionType   candle.OptionType
	Direction    candle.TransactionType
	CurrentPrice decimal.Decimal
}

// PnLPoints returns the signed points P&L for this leg, using the same
// direction convention as Simulated.PnL.
func (l Leg) PnLPoints() float64 {
	diff, _ := l.CurrentPrice.Sub(l.EntryPrice).Float64()
	if l.Direction == candle.Sell {
		diff = -diff
	}
	return diff
}

// ToSimulated converts a Leg into its Simulated counterpart for callers
// that operate on the spec's SimulatedPosition shape.
func (l Leg) ToSimulated() Simulated {
	return Simulated{
		Symbol:          l.Symbol,
		Token:           l.Token,
		OptionType:      l.OptionType,
		TransactionType: l.Direction,
		EntryPrice:      l.EntryPrice,
		Quantity:        l.Quantity,
		CurrentPrice:    l.CurrentPrice,
	}
}
