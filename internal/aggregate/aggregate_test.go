package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-replay/internal/engine"
	"github.com/contactkeval/option-replay/internal/exit"
)

func trade(pnlAmount float64, wasRestarted bool) engine.Trade {
	return engine.Trade{
		EntryTime:            time.Now(),
		ExitTime:             time.Now(),
		CombinedEntryPremium: decimal.NewFromFloat(180),
		Legs:                 []engine.TradeLeg{{Quantity: 50}, {Quantity: 50}},
		PnLAmount:            decimal.NewFromFloat(pnlAmount),
		ExitReason:           exit.CumulativeTargetHit,
		WasRestarted:         wasRestarted,
	}
}

func TestSummarize_EmptyTradesReturnsZeroedResult(t *testing.T) {
	result := Summarize("bt-1", time.Now(), "SELL_ATM_STRADDLE", "NIFTY", nil)
	assert.Equal(t, Completed, result.Status)
	assert.Zero(t, result.TotalPnLAmount)
	assert.Zero(t, result.Wins)
}

func TestSummarize_WinsAndLosses(t *testing.T) {
	trades := []engine.Trade{trade(100, false), trade(-50, false), trade(200, true)}
	result := Summarize("bt-2", time.Now(), "SELL_ATM_STRADDLE", "NIFTY", trades)

	require.Equal(t, 2, result.Wins)
	require.Equal(t, 1, result.Losses)
	assert.InDelta(t, 250, result.TotalPnLAmount, 1e-9)
	assert.InDelta(t, 150, result.AvgWin, 1e-9)
	assert.InDelta(t, 50, result.AvgLoss, 1e-9)
	assert.InDelta(t, 6.0, result.ProfitFactor, 1e-9) // 300/50
	assert.InDelta(t, 66.67, result.WinRatePct, 0.01)
	assert.Equal(t, 1, result.RestartCount)
}

func TestSummarize_ProfitFactorCappedWhenNoLosses(t *testing.T) {
	trades := []engine.Trade{trade(100, false), trade(50, false)}
	result := Summarize("bt-3", time.Now(), "SELL_ATM_STRADDLE", "NIFTY", trades)
	assert.Equal(t, maxProfitFactor, result.ProfitFactor)
}

func TestSummarize_ProfitFactorZeroWhenNoWinsOrLosses(t *testing.T) {
	trades := []engine.Trade{trade(0, false)}
	result := Summarize("bt-4", time.Now(), "SELL_ATM_STRADDLE", "NIFTY", trades)
	assert.Zero(t, result.ProfitFactor)
}

func TestSummarize_DrawdownTracksPeakRetracement(t *testing.T) {
	trades := []engine.Trade{trade(100, false), trade(-40, false), trade(10, false)}
	result := Summarize("bt-5", time.Now(), "SELL_ATM_STRADDLE", "NIFTY", trades)
	assert.InDelta(t, 40.0, result.MaxDrawdownPct, 1e-9) // (100-60)/100*100
}

func TestFailed_RetainsPriorTradesAndSetsErrorFields(t *testing.T) {
	prior := []engine.Trade{trade(100, false)}
	result := Failed("bt-6", time.Now(), "SELL_ATM_STRADDLE", "NIFTY", prior, "DATA_FETCH_FAILED", "index candles unavailable")
	assert.Equal(t, Failed, result.Status)
	assert.Equal(t, "DATA_FETCH_FAILED", result.ErrorCode)
	assert.Len(t, result.Trades, 1)
}
