package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-replay/internal/candle"
	"github.com/contactkeval/option-replay/internal/config"
	"github.com/contactkeval/option-replay/internal/exit"
)

type fakeHistorical struct {
	indexCandles []candle.Candle
	ceCandles    []candle.Candle
	peCandles    []candle.Candle
}

func (f *fakeHistorical) FetchDayCandles(ctx context.Context, token string, date time.Time, interval string) ([]candle.Candle, error) {
	return f.indexCandles, nil
}

func (f *fakeHistorical) FetchOptionCandles(ctx context.Context, underlying string, strike float64, optType candle.OptionType, expiry, date time.Time, interval string) ([]candle.Candle, error) {
	if optType == candle.CE {
		return f.ceCandles, nil
	}
	return f.peCandles, nil
}

func (f *fakeHistorical) GenerateOptionSymbol(underlying string, strike float64, optType candle.OptionType, expiry time.Time) string {
	return underlying + string(optType)
}

func (f *fakeHistorical) IsDataAvailable(date time.Time) bool { return true }

type fakeMaster struct {
	instruments []candle.Instrument
}

func (f *fakeMaster) FetchNFO(ctx context.Context) ([]candle.Instrument, error) {
	return f.instruments, nil
}

func (f *fakeMaster) IndexToken(underlying string) (string, error) { return "256265", nil }
func (f *fakeMaster) DefaultLotSize(underlying string) int         { return 50 }

func tick(mins int, ceClose, peClose float64) (candle.Candle, candle.Candle) {
	ts := time.Date(2024, 1, 8, 9, 20+mins, 0, 0, candle.IST)
	ce := candle.Candle{Timestamp: ts, Close: decimal.NewFromFloat(ceClose)}
	pe := candle.Candle{Timestamp: ts, Close: decimal.NewFromFloat(peClose)}
	return ce, pe
}

func baseRequest() config.BacktestRequest {
	return config.BacktestRequest{
		Date:              time.Date(2024, 1, 8, 0, 0, 0, 0, candle.IST),
		StrategyType:      config.SellATMStraddle,
		Underlying:        "NIFTY",
		ExpiryDate:        time.Date(2024, 1, 11, 15, 30, 0, 0, candle.IST),
		Lots:              1,
		SLTargetMode:      config.ModePoints,
		TargetPoints:      2.0,
		StopLossPoints:    3.0,
		StartTime:         "09:15",
		EndTime:           "15:30",
		AutoSquareOffTime: "15:10",
		CandleInterval:    "minute",
	}
}

func nfoInstruments() []candle.Instrument {
	expiry := time.Date(2024, 1, 11, 15, 30, 0, 0, candle.IST)
	return []candle.Instrument{
		{TradingSymbol: "NIFTY18000CE", Token: 1, Underlying: "NIFTY", Expiry: expiry, Strike: 18000, OptionType: candle.CE, LotSize: 50},
		{TradingSymbol: "NIFTY18000PE", Token: 2, Underlying: "NIFTY", Expiry: expiry, Strike: 18000, OptionType: candle.PE, LotSize: 50},
	}
}

func TestEngine_Run_TargetHitShortStraddle(t *testing.T) {
	indexCandle := candle.Candle{
		Timestamp: time.Date(2024, 1, 8, 9, 20, 0, 0, candle.IST),
		Close:     decimal.NewFromFloat(18000),
	}
	ce0, pe0 := tick(0, 100, 80)
	ce1, pe1 := tick(1, 99, 79)

	hist := &fakeHistorical{
		indexCandles: []candle.Candle{indexCandle},
		ceCandles:    []candle.Candle{ce0, ce1},
		peCandles:    []candle.Candle{pe0, pe1},
	}
	master := &fakeMaster{instruments: nfoInstruments()}

	e := New(hist, master)
	trades, err := e.Run(context.Background(), baseRequest())

	require.NoError(t, err)
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, exit.CumulativeTargetHit, tr.ExitReason)
	assert.InDelta(t, 2.0, tr.PnLPoints, 1e-9)
	assert.InDelta(t, 100.0, tr.PnLAmount.InexactFloat64(), 1e-9) // 2 points * 50 qty
	assert.InDelta(t, 180.0, tr.CombinedEntryPremium.InexactFloat64(), 1e-9)
	assert.NotEmpty(t, tr.ID)
	assert.False(t, tr.WasRestarted)
}

func TestEngine_Run_ForcedSquareOffWhenNoExitFires(t *testing.T) {
	indexCandle := candle.Candle{
		Timestamp: time.Date(2024, 1, 8, 9, 20, 0, 0, candle.IST),
		Close:     decimal.NewFromFloat(18000),
	}
	ce0, pe0 := tick(0, 100, 80)
	ce1, pe1 := tick(1, 100.2, 80.1)

	hist := &fakeHistorical{
		indexCandles: []candle.Candle{indexCandle},
		ceCandles:    []candle.Candle{ce0, ce1},
		peCandles:    []candle.Candle{pe0, pe1},
	}
	master := &fakeMaster{instruments: nfoInstruments()}

	req := baseRequest()
	req.TargetPoints = 10
	req.StopLossPoints = 10

	e := New(hist, master)
	trades, err := e.Run(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, exit.TimeBasedForcedExit, trades[0].ExitReason)
}

func TestEngine_Run_InstrumentNotFound(t *testing.T) {
	indexCandle := candle.Candle{
		Timestamp: time.Date(2024, 1, 8, 9, 20, 0, 0, candle.IST),
		Close:     decimal.NewFromFloat(18000),
	}
	hist := &fakeHistorical{indexCandles: []candle.Candle{indexCandle}}
	master := &fakeMaster{instruments: nil}

	e := New(hist, master)
	_, err := e.Run(context.Background(), baseRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstrumentNotFound)
}

func TestEngine_Run_InvalidDateWeekend(t *testing.T) {
	hist := &fakeHistorical{}
	master := &fakeMaster{}
	req := baseRequest()
	req.Date = time.Date(2024, 1, 7, 0, 0, 0, 0, candle.IST) // Sunday

	e := New(hist, master)
	_, err := e.Run(context.Background(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestEngine_Run_AutoRestart(t *testing.T) {
	index := []candle.Candle{
		{Timestamp: time.Date(2024, 1, 8, 9, 20, 0, 0, candle.IST), Close: decimal.NewFromFloat(18000)},
		{Timestamp: time.Date(2024, 1, 8, 9, 22, 0, 0, candle.IST), Close: decimal.NewFromFloat(18000)},
	}
	ce0, pe0 := tick(0, 100, 80)
	ce1, pe1 := tick(1, 99, 79) // first cycle target hit at 9:21
	ce2, pe2 := tick(2, 100, 80)
	ce3, pe3 := tick(3, 99, 79) // second cycle also target hit at 9:23

	hist := &fakeHistorical{
		indexCandles: index,
		ceCandles:    []candle.Candle{ce0, ce1, ce2, ce3},
		peCandles:    []candle.Candle{pe0, pe1, pe2, pe3},
	}
	master := &fakeMaster{instruments: nfoInstruments()}

	req := baseRequest()
	req.AutoRestartEnabled = true
	req.MaxAutoRestarts = 2

	e := New(hist, master)
	trades, err := e.Run(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.False(t, trades[0].WasRestarted)
	assert.True(t, trades[1].WasRestarted)

	restarted := 0
	for _, tr := range trades {
		if tr.WasRestarted {
			restarted++
		}
	}
	assert.LessOrEqual(t, restarted, req.MaxAutoRestarts)
}
