package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-replay/internal/aggregate"
	"github.com/contactkeval/option-replay/internal/cache"
	"github.com/contactkeval/option-replay/internal/candle"
	"github.com/contactkeval/option-replay/internal/config"
)

type stubHistorical struct{}

func (stubHistorical) FetchDayCandles(ctx context.Context, token string, date time.Time, interval string) ([]candle.Candle, error) {
	return []candle.Candle{{Timestamp: time.Date(2024, 1, 8, 9, 20, 0, 0, candle.IST), Close: decimal.NewFromFloat(18000)}}, nil
}

func (stubHistorical) FetchOptionCandles(ctx context.Context, underlying string, strike float64, optType candle.OptionType, expiry, date time.Time, interval string) ([]candle.Candle, error) {
	ts := time.Date(2024, 1, 8, 9, 20, 0, 0, candle.IST)
	price := 100.0
	if optType == candle.PE {
		price = 80.0
	}
	return []candle.Candle{{Timestamp: ts, Close: decimal.NewFromFloat(price)}}, nil
}

func (stubHistorical) GenerateOptionSymbol(underlying string, strike float64, optType candle.OptionType, expiry time.Time) string {
	return underlying + string(optType)
}

func (stubHistorical) IsDataAvailable(date time.Time) bool { return true }

type stubMaster struct{}

func (stubMaster) FetchNFO(ctx context.Context) ([]candle.Instrument, error) {
	expiry := time.Date(2024, 1, 11, 15, 30, 0, 0, candle.IST)
	return []candle.Instrument{
		{TradingSymbol: "NIFTY18000CE", Token: 1, Underlying: "NIFTY", Expiry: expiry, Strike: 18000, OptionType: candle.CE, LotSize: 50},
		{TradingSymbol: "NIFTY18000PE", Token: 2, Underlying: "NIFTY", Expiry: expiry, Strike: 18000, OptionType: candle.PE, LotSize: 50},
	}, nil
}

func (stubMaster) IndexToken(underlying string) (string, error) { return "256265", nil }
func (stubMaster) DefaultLotSize(underlying string) int         { return 50 }

func validRequest() config.BacktestRequest {
	return config.BacktestRequest{
		Date:              time.Date(2024, 1, 8, 0, 0, 0, 0, candle.IST),
		StrategyType:      config.SellATMStraddle,
		Underlying:        "NIFTY",
		ExpiryDate:        time.Date(2024, 1, 11, 15, 30, 0, 0, candle.IST),
		Lots:              1,
		SLTargetMode:      config.ModePoints,
		TargetPoints:      10,
		StopLossPoints:    10,
		StartTime:         "09:15",
		EndTime:           "15:30",
		AutoSquareOffTime: "15:10",
		CandleInterval:    "minute",
		MaxAutoRestarts:   0,
	}
}

func TestFacade_Run_CompletedResultIsCached(t *testing.T) {
	results := cache.New(10)
	f := New(stubHistorical{}, stubMaster{}, results, true, 2)

	result, err := f.Run(context.Background(), validRequest())

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, aggregate.Completed, result.Status)

	cached, ok := f.Get(result.ID)
	require.True(t, ok)
	assert.Equal(t, result.ID, cached.ID)
}

func TestFacade_Run_DisabledReturnsFailed(t *testing.T) {
	results := cache.New(10)
	f := New(stubHistorical{}, stubMaster{}, results, false, 2)

	result, err := f.Run(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, aggregate.Failed, result.Status)
	assert.Equal(t, "BACKTEST_DISABLED", result.ErrorCode)
}

func TestFacade_Run_InvalidRequestReturnsFailedWithoutRunningEngine(t *testing.T) {
	results := cache.New(10)
	f := New(stubHistorical{}, stubMaster{}, results, true, 2)

	req := validRequest()
	req.Lots = 0 // violates gt=0

	result, err := f.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, aggregate.Failed, result.Status)
}
