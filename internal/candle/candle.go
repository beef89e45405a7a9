// Package candle defines the immutable market-data primitives shared by
// every other package in the backtesting core: OHLC candles, instrument
// master records, and the merged CE/PE tick that drives the replay clock.
package candle

import (
	"time"

	"github.com/shopspring/decimal"
)

// IST is the fixed trading-session location used to interpret every
// timestamp in the core. Candles that arrive without zone information are
// assumed to already be in this location.
var IST = mustLoadIST()

func mustLoadIST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// OptionType distinguishes call and put legs.
type OptionType string

const (
	CE OptionType = "CE"
	PE OptionType = "PE"
)

// TransactionType is the direction of an individual leg.
type TransactionType string

const (
	Buy  TransactionType = "BUY"
	Sell TransactionType = "SELL"
)

// Candle is an immutable, minute-aligned OHLC record.
type Candle struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

// Instrument is an immutable instrument-master record for a single
// tradeable option or index contract.
type Instrument struct {
	TradingSymbol string
	Token         int64
	Underlying    string
	Expiry        time.Time
	Strike        float64
	OptionType    OptionType
	LotSize       int
}

// MergedTick is a single fused observation of both legs of a straddle at
// one instant. It is only ever emitted once both legs have been observed
// at least once (see package merge).
type MergedTick struct {
	Timestamp time.Time
	CeLTP     decimal.Decimal
	PeLTP     decimal.Decimal
	CeToken   int64
	PeToken   int64
}
