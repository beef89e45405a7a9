package data

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-replay/internal/candle"
	"github.com/contactkeval/option-replay/internal/pricing"
)

// SyntheticHistoricalData generates deterministic, seeded minute candles
// for an index and its option chain without any network dependency,
// mirroring the teacher's synthDataProvider fallback in
// internal/data/synthetic.go (used there when POLYGON_API_KEY is unset),
// generalized to emit NFO-shaped CE/PE premium curves instead of single
// equity-option series.
type SyntheticHistoricalData struct {
	seed int64
}

// NewSyntheticHistoricalData builds a generator seeded from seed so
// repeated runs with the same request produce byte-identical candles, per
// spec.md §8 "priority determinism".
func NewSyntheticHistoricalData(seed int64) *SyntheticHistoricalData {
	return &SyntheticHistoricalData{seed: seed}
}

func (s *SyntheticHistoricalData) rngFor(salt string, date time.Time) *rand.Rand {
	h := int64(0)
	for _, c := range salt {
		h = h*31 + int64(c)
	}
	return rand.New(rand.NewSource(s.seed ^ h ^ date.Unix()))
}

// FetchDayCandles synthesizes one trading day of minute index candles
// starting at a per-underlying base spot and random-walking from there.
func (s *SyntheticHistoricalData) FetchDayCandles(ctx context.Context, token string, date time.Time, interval string) ([]candle.Candle, error) {
	r := s.rngFor("index:"+token, date)
	base := spotBaseFor(underlyingForToken(token))
	return synthWalk(r, date, base, 0.15), nil
}

// FetchOptionCandles synthesizes one trading day of minute option premium
// candles by re-walking the underlying's spot and repricing it through
// Black-Scholes every minute, so premium decay tracks moneyness and time
// to expiry instead of an unconstrained random walk.
func (s *SyntheticHistoricalData) FetchOptionCandles(ctx context.Context, underlying string, strike float64, optType candle.OptionType, expiry, date time.Time, interval string) ([]candle.Candle, error) {
	r := s.rngFor(underlying+string(optType), date)
	spotBase := spotBaseFor(underlying)
	const riskFreeRate = 0.065
	const annualVol = 0.14
	return synthOptionWalk(r, date, spotBase, strike, expiry, optType == candle.CE, riskFreeRate, annualVol), nil
}

// GenerateOptionSymbol formats an NFO-style trading symbol.
func (s *SyntheticHistoricalData) GenerateOptionSymbol(underlying string, strike float64, optType candle.OptionType, expiry time.Time) string {
	return underlying + expiry.In(candle.IST).Format("02Jan06") + decimal.NewFromFloat(strike).StringFixed(0) + string(optType)
}

// IsDataAvailable always reports true for weekdays not in the future; the
// synthetic adapter never actually lacks data for a valid trading day.
func (s *SyntheticHistoricalData) IsDataAvailable(date time.Time) bool {
	return isTradingDay(date)
}

func synthWalk(r *rand.Rand, date time.Time, base, volatility float64) []candle.Candle {
	start := time.Date(date.Year(), date.Month(), date.Day(), 9, 15, 0, 0, candle.IST)
	end := time.Date(date.Year(), date.Month(), date.Day(), 15, 30, 0, 0, candle.IST)

	out := make([]candle.Candle, 0, 375)
	price := base
	for t := start; !t.After(end); t = t.Add(time.Minute) {
		step := (r.Float64() - 0.5) * volatility
		price = math.Max(0.05, price+step)
		high := price + r.Float64()*volatility*0.5
		low := math.Max(0.05, price-r.Float64()*volatility*0.5)
		out = append(out, candle.Candle{
			Timestamp: t,
			Open:      decimal.NewFromFloat(price),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(price),
			Volume:    int64(r.Intn(1000)),
		})
	}
	return out
}

// synthOptionWalk random-walks the underlying spot across the trading day
// and reprices the contract through Black-Scholes at every minute, adding a
// small amount of quote noise on top of the theoretical price. Time to
// expiry shrinks minute by minute, so the curve exhibits the same theta
// pull toward intrinsic value a real chain shows into the close.
func synthOptionWalk(r *rand.Rand, date time.Time, spotBase, strike float64, expiry time.Time, isCall bool, riskFreeRate, vol float64) []candle.Candle {
	start := time.Date(date.Year(), date.Month(), date.Day(), 9, 15, 0, 0, candle.IST)
	end := time.Date(date.Year(), date.Month(), date.Day(), 15, 30, 0, 0, candle.IST)

	out := make([]candle.Candle, 0, 375)
	spot := spotBase
	for t := start; !t.After(end); t = t.Add(time.Minute) {
		spot = math.Max(0.05, spot+(r.Float64()-0.5)*spotBase*0.0015)

		yearsToExpiry := math.Max(expiry.Sub(t).Hours()/24/365, 1e-6)
		theo := pricing.BlackScholesPrice(isCall, spot, strike, yearsToExpiry, riskFreeRate, vol)

		price := math.Max(0.05, theo+theo*(r.Float64()-0.5)*0.05)
		high := price + r.Float64()*price*0.02
		low := math.Max(0.05, price-r.Float64()*price*0.02)
		out = append(out, candle.Candle{
			Timestamp: t,
			Open:      decimal.NewFromFloat(price),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(price),
			Volume:    int64(r.Intn(1000)),
		})
	}
	return out
}

// SyntheticInstrumentMaster generates an NFO instrument list covering a
// band of strikes around each underlying's base spot for the next four
// weekly (Thursday) expiries counted from the current date, mirroring the
// teacher's synthetic contract generation in internal/data/synthetic.go.
// The list does not depend on the seed.
type SyntheticInstrumentMaster struct {
	seed int64
}

// NewSyntheticInstrumentMaster builds a generator; seed is stored but the
// generated instrument list does not use it.
func NewSyntheticInstrumentMaster(seed int64) *SyntheticInstrumentMaster {
	return &SyntheticInstrumentMaster{seed: seed}
}

// FetchNFO returns a synthetic instrument list for NIFTY/BANKNIFTY/FINNIFTY
// spanning the next four weekly expiries and 20 strikes either side of a
// round base spot (41 strikes per expiry).
func (s *SyntheticInstrumentMaster) FetchNFO(ctx context.Context) ([]candle.Instrument, error) {
	// A fixed-order slice, not a map: token values are assigned by
	// insertion order below, and Go map iteration order is randomized, so
	// a map here would make the reported Trade.Legs[i].Token values
	// non-deterministic across otherwise identical runs.
	underlyings := []struct {
		name string
		base float64
		step float64
		lot  int
	}{
		{"NIFTY", 20000, 50, 50},
		{"BANKNIFTY", 45000, 100, 15},
		{"FINNIFTY", 21000, 50, 40},
	}

	now := time.Now().In(candle.IST)
	var out []candle.Instrument
	for _, spec := range underlyings {
		underlying := spec.name
		for week := 0; week < 4; week++ {
			expiry := nextThursday(now, week)
			for i := -20; i <= 20; i++ {
				strike := spec.base + float64(i)*spec.step
				for _, optType := range []candle.OptionType{candle.CE, candle.PE} {
					out = append(out, candle.Instrument{
						TradingSymbol: underlying + expiry.Format("02Jan06") + decimal.NewFromFloat(strike).StringFixed(0) + string(optType),
						Token:         int64(len(out) + 1),
						Underlying:    underlying,
						Expiry:        expiry,
						Strike:        strike,
						OptionType:    optType,
						LotSize:       spec.lot,
					})
				}
			}
		}
	}
	return out, nil
}

func nextThursday(from time.Time, weeksAhead int) time.Time {
	d := from.AddDate(0, 0, weeksAhead*7)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 15, 30, 0, 0, candle.IST)
}

// IndexToken returns the compiled-in synthetic index token table entry.
func (s *SyntheticInstrumentMaster) IndexToken(underlying string) (string, error) {
	if tok, ok := indexTokens[underlying]; ok {
		return tok, nil
	}
	return "SYNTH-" + underlying, nil
}

// DefaultLotSize returns the compiled-in default lot size for underlying.
func (s *SyntheticInstrumentMaster) DefaultLotSize(underlying string) int {
	return lotSizeFor(underlying)
}
