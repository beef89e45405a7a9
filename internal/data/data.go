// Package data defines the historical-data and instrument-master
// collaborator interfaces the backtesting core depends on (spec.md §6),
// plus HTTP-backed and synthetic/offline implementations. Grounded on the
// teacher's Provider interface and massiveDataProvider in
// internal/data/provider.go and internal/data/massive.go, split into two
// narrower interfaces matching the spec's HistoricalData/InstrumentMaster
// collaborators instead of one do-everything Provider.
package data

import (
	"context"
	"errors"
	"time"

	"github.com/contactkeval/option-replay/internal/candle"
)

// ErrDataUnavailable is wrapped into DATA_FETCH_FAILED by the engine when a
// HistoricalData call fails for any reason other than a missing contract.
var ErrDataUnavailable = errors.New("historical data unavailable")

// HistoricalData fetches minute candles for the index and its option
// contracts, and formats NFO-style trading symbols.
type HistoricalData interface {
	FetchDayCandles(ctx context.Context, token string, date time.Time, interval string) ([]candle.Candle, error)
	FetchOptionCandles(ctx context.Context, underlying string, strike float64, optType candle.OptionType, expiry, date time.Time, interval string) ([]candle.Candle, error)
	GenerateOptionSymbol(underlying string, strike float64, optType candle.OptionType, expiry time.Time) string
	IsDataAvailable(date time.Time) bool
}

// InstrumentMaster resolves index tokens, default lot sizes, and the full
// NFO contract list the strike resolver searches.
type InstrumentMaster interface {
	FetchNFO(ctx context.Context) ([]candle.Instrument, error)
	IndexToken(underlying string) (string, error)
	DefaultLotSize(underlying string) int
}

// defaultLotSizes mirrors the teacher's per-underlying defaults table,
// generalized from US-equity share counts to NFO lot sizes.
var defaultLotSizes = map[string]int{
	"NIFTY":     50,
	"BANKNIFTY": 15,
	"FINNIFTY":  40,
}

func lotSizeFor(underlying string) int {
	if sz, ok := defaultLotSizes[underlying]; ok {
		return sz
	}
	return 50
}

// indexTokens mirrors the teacher's per-underlying token table pattern
// from massive.go's contract-ticker formatting, generalized to NSE index
// tokens instead of US tickers.
var indexTokens = map[string]string{
	"NIFTY":     "256265",
	"BANKNIFTY": "260105",
	"FINNIFTY":  "257801",
}

// spotBases gives the synthetic adapter's per-underlying reference spot, so
// the index walk and the option chain's Black-Scholes premiums agree on
// roughly where the market is.
var spotBases = map[string]float64{
	"NIFTY":     20000,
	"BANKNIFTY": 45000,
	"FINNIFTY":  21000,
}

func spotBaseFor(underlying string) float64 {
	if b, ok := spotBases[underlying]; ok {
		return b
	}
	return 20000
}

// underlyingForToken inverts indexTokens so the synthetic day-candle
// generator (which only receives a token, per the HistoricalData
// interface) can still pick the right reference spot.
func underlyingForToken(token string) string {
	for u, t := range indexTokens {
		if t == token {
			return u
		}
	}
	return ""
}
