package data

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/contactkeval/option-replay/internal/candle"
	"github.com/contactkeval/option-replay/internal/logger"
)

// RESTHistoricalData hits a configurable broker-style HTTP API for index
// and option minute candles. Grounded on massiveDataProvider's pagination
// and retry loop in internal/data/massive.go, generalized to NFO-style
// underlyings and rewritten on top of resty instead of raw net/http, with
// outbound calls throttled by a token-bucket limiter instead of the
// teacher's manual sleep-until-next-minute retry.
type RESTHistoricalData struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewRESTHistoricalData builds a client against baseURL, authenticating
// every request with apiKey and limiting outbound calls to ratePerMinute.
func NewRESTHistoricalData(baseURL, apiKey string, ratePerMinute int) *RESTHistoricalData {
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetTimeout(10 * time.Second)
	return &RESTHistoricalData{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), 1),
	}
}

type candleDTO struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    int64   `json:"v"`
}

type candleResponse struct {
	Results []candleDTO `json:"results"`
}

func (r *RESTHistoricalData) awaitSlot(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// FetchDayCandles retrieves minute candles for an index token on date.
func (r *RESTHistoricalData) FetchDayCandles(ctx context.Context, token string, date time.Time, interval string) ([]candle.Candle, error) {
	if err := r.awaitSlot(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	var out candleResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"token":    token,
			"date":     date.Format("2006-01-02"),
			"interval": interval,
		}).
		SetResult(&out).
		Get("/candles/index")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrDataUnavailable, resp.StatusCode())
	}
	return toCandles(out.Results), nil
}

// FetchOptionCandles retrieves minute candles for a single option contract
// on date.
func (r *RESTHistoricalData) FetchOptionCandles(ctx context.Context, underlying string, strike float64, optType candle.OptionType, expiry, date time.Time, interval string) ([]candle.Candle, error) {
	if err := r.awaitSlot(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	symbol := r.GenerateOptionSymbol(underlying, strike, optType, expiry)
	var out candleResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"date":     date.Format("2006-01-02"),
			"interval": interval,
		}).
		SetResult(&out).
		Get("/candles/option")
	if err != nil {
		logger.Errorf("option candle fetch failed for %s: %v", symbol, err)
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrDataUnavailable, resp.StatusCode())
	}
	return toCandles(out.Results), nil
}

// GenerateOptionSymbol formats an NFO-style trading symbol, generalized
// from the teacher's OCC-style OptionSymbolFromParts in
// internal/data/polygon.go.
func (r *RESTHistoricalData) GenerateOptionSymbol(underlying string, strike float64, optType candle.OptionType, expiry time.Time) string {
	return fmt.Sprintf("%s%s%d%s", underlying, expiry.In(candle.IST).Format("02Jan06"), int64(strike), optType)
}

// IsDataAvailable reports whether date is a trading day the broker covers:
// not a weekend and not in the future.
func (r *RESTHistoricalData) IsDataAvailable(date time.Time) bool {
	return isTradingDay(date)
}

func isTradingDay(date time.Time) bool {
	now := time.Now().In(candle.IST)
	if date.After(now) {
		return false
	}
	wd := date.In(candle.IST).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func toCandles(dtos []candleDTO) []candle.Candle {
	out := make([]candle.Candle, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, candle.Candle{
			Timestamp: time.Unix(d.Timestamp, 0).In(candle.IST),
			Open:      decimal.NewFromFloat(d.Open),
			High:      decimal.NewFromFloat(d.High),
			Low:       decimal.NewFromFloat(d.Low),
			Close:     decimal.NewFromFloat(d.Close),
			Volume:    d.Volume,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// RESTInstrumentMaster fetches the NFO instrument list from a broker-style
// HTTP API and caches it in memory, mirroring the teacher's
// Provider.GetContracts pagination pattern in internal/data/massive.go.
type RESTInstrumentMaster struct {
	client *resty.Client

	cached []candle.Instrument
}

// NewRESTInstrumentMaster builds a client against baseURL.
func NewRESTInstrumentMaster(baseURL, apiKey string) *RESTInstrumentMaster {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetTimeout(10 * time.Second)
	return &RESTInstrumentMaster{client: client}
}

type instrumentDTO struct {
	TradingSymbol string  `json:"trading_symbol"`
	Token         int64   `json:"token"`
	Underlying    string  `json:"underlying"`
	Expiry        string  `json:"expiry"`
	Strike        float64 `json:"strike"`
	OptionType    string  `json:"option_type"`
	LotSize       int     `json:"lot_size"`
}

// FetchNFO retrieves and caches the full NFO instrument list. Subsequent
// calls return the cached snapshot without another round trip, matching
// spec.md §6 "bulk; implementer caches".
func (r *RESTInstrumentMaster) FetchNFO(ctx context.Context) ([]candle.Instrument, error) {
	if r.cached != nil {
		return r.cached, nil
	}
	var dtos []instrumentDTO
	resp, err := r.client.R().SetContext(ctx).SetResult(&dtos).Get("/instruments/nfo")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrDataUnavailable, resp.StatusCode())
	}

	out := make([]candle.Instrument, 0, len(dtos))
	for _, d := range dtos {
		expiry, err := time.ParseInLocation("2006-01-02", d.Expiry, candle.IST)
		if err != nil {
			continue
		}
		out = append(out, candle.Instrument{
			TradingSymbol: d.TradingSymbol,
			Token:         d.Token,
			Underlying:    d.Underlying,
			Expiry:        expiry,
			Strike:        d.Strike,
			OptionType:    candle.OptionType(d.OptionType),
			LotSize:       d.LotSize,
		})
	}
	r.cached = out
	return out, nil
}

// IndexToken looks up the exchange token for an index underlying.
func (r *RESTInstrumentMaster) IndexToken(underlying string) (string, error) {
	if tok, ok := indexTokens[underlying]; ok {
		return tok, nil
	}
	return "", fmt.Errorf("instrument master: unknown underlying %q", underlying)
}

// DefaultLotSize returns the compiled-in default lot size for underlying,
// used when the instrument master response lacks one.
func (r *RESTInstrumentMaster) DefaultLotSize(underlying string) int {
	return lotSizeFor(underlying)
}
