// Package strike resolves at-the-money strikes and locates the matching
// CE/PE instruments in an instrument master, the Go-native counterpart of
// the teacher's ATM:/DELTA: strike-expression resolver in
// internal/backtest/strategy/planner.go, narrowed to the single ATM rule
// the spec requires.
package strike

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/contactkeval/option-replay/internal/candle"
)

// ErrInstrumentNotFound is returned when the instrument master has no CE
// or PE matching the resolved (underlying, expiry, strike).
var ErrInstrumentNotFound = fmt.Errorf("INSTRUMENT_NOT_FOUND")

// stepFor returns the strike rounding step for an underlying index.
func stepFor(underlying string) float64 {
	switch strings.ToUpper(underlying) {
	case "BANKNIFTY":
		return 100
	default: // NIFTY, FINNIFTY
		return 50
	}
}

// ATM rounds spot to the nearest multiple of the per-underlying step.
func ATM(spot float64, underlying string) float64 {
	step := stepFor(underlying)
	return math.Round(spot/step) * step
}

// Legs holds the resolved CE and PE instruments for one straddle.
type Legs struct {
	Call candle.Instrument
	Put  candle.Instrument
}

// Resolve rounds spot to the ATM strike for underlying and locates the
// single CE and single PE instrument matching (underlying, expiry,
// strike) in master. It fails with ErrInstrumentNotFound if either leg
// is missing.
func Resolve(master []candle.Instrument, underlying string, expiry time.Time, spot float64) (Legs, float64, error) {
	atm := ATM(spot, underlying)

	var legs Legs
	var haveCall, havePut bool

	for _, inst := range master {
		if !strings.EqualFold(inst.Underlying, underlying) {
			continue
		}
		if !sameDay(inst.Expiry, expiry) {
			continue
		}
		if inst.Strike != atm {
			continue
		}
		switch inst.OptionType {
		case candle.CE:
			legs.Call = inst
			haveCall = true
		case candle.PE:
			legs.Put = inst
			havePut = true
		}
	}

	if !haveCall || !havePut {
		return Legs{}, atm, fmt.Errorf("%w: %s %s strike=%.2f", ErrInstrumentNotFound, underlying, expiry.Format("2006-01-02"), atm)
	}

	return legs, atm, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
