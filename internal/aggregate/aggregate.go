// Package aggregate implements the Result Aggregator (C9): a single pass
// over a completed trade list producing the totals, win/loss split, and
// rolling drawdown statistics the service facade reports back to callers.
// Grounded on the teacher's AnnualizedVolatility-style single-pass
// statistics helper in internal/backtest/helper.go, generalized from a
// return-series summary into the spec's trade-ledger summary.
package aggregate

import (
	"math"
	"time"

	"github.com/contactkeval/option-replay/internal/engine"
)

// Status is the terminal state of a backtest.
type Status string

const (
	Running   Status = "RUNNING"
	Completed Status = "COMPLETED"
	Failed    Status = "FAILED"
)

// BacktestResult is the single output of one backtest run, either a
// COMPLETED trade ledger with metrics or a FAILED result carrying the
// taxonomy error code and message.
type BacktestResult struct {
	ID           string
	Date         time.Time
	StrategyType string
	Underlying   string
	Status       Status

	Trades []engine.Trade

	TotalPnLPoints float64
	TotalPnLAmount float64
	Wins           int
	Losses         int
	WinRatePct     float64
	AvgWin         float64
	AvgLoss        float64
	ProfitFactor   float64
	MaxDrawdownPct float64
	MaxProfitPct   float64
	RestartCount   int

	ExecutionDurationMs int64
	ErrorCode           string
	ErrorMessage        string
}

// maxProfitFactor is the spec's cap applied when total losses are zero but
// at least one winning trade exists, avoiding a division-by-zero infinity.
const maxProfitFactor = 999.99

// Summarize performs the single pass over trades described in spec.md
// §4.7, returning a COMPLETED BacktestResult. id/date/strategyType/
// underlying are carried through from the originating request.
func Summarize(id string, date time.Time, strategyType, underlying string, trades []engine.Trade) BacktestResult {
	result := BacktestResult{
		ID:           id,
		Date:         date,
		StrategyType: strategyType,
		Underlying:   underlying,
		Status:       Completed,
		Trades:       trades,
	}

	if len(trades) == 0 {
		return result
	}

	var totalWinAmt, totalLossAmt float64
	var peakPnl, runningPnl, maxDrawdown, maxProfit float64

	for _, t := range trades {
		pnlAmount, _ := t.PnLAmount.Float64()

		result.TotalPnLPoints += t.PnLPoints
		result.TotalPnLAmount += pnlAmount

		if pnlAmount >= 0 {
			result.Wins++
			totalWinAmt += pnlAmount
		} else {
			result.Losses++
			totalLossAmt += -pnlAmount
		}

		if t.WasRestarted {
			result.RestartCount++
		}

		runningPnl += pnlAmount
		if runningPnl > peakPnl {
			peakPnl = runningPnl
		}
		if peakPnl > 0 {
			drawdownPct := (peakPnl - runningPnl) / peakPnl * 100
			if drawdownPct > maxDrawdown {
				maxDrawdown = drawdownPct
			}
		}
		if runningPnl > maxProfit {
			maxProfit = runningPnl
		}
	}

	total := len(trades)
	result.WinRatePct = round2(float64(result.Wins) / float64(total) * 100)

	if result.Wins > 0 {
		result.AvgWin = round2(totalWinAmt / float64(result.Wins))
	}
	if result.Losses > 0 {
		result.AvgLoss = round2(totalLossAmt / float64(result.Losses))
	}

	switch {
	case totalLossAmt == 0 && totalWinAmt > 0:
		result.ProfitFactor = maxProfitFactor
	case totalLossAmt == 0:
		result.ProfitFactor = 0
	default:
		result.ProfitFactor = round2(math.Min(totalWinAmt/totalLossAmt, maxProfitFactor))
	}

	result.MaxDrawdownPct = round2(maxDrawdown)

	firstTrade := trades[0]
	entryPremium, _ := firstTrade.CombinedEntryPremium.Float64()
	notional := entryPremium * float64(firstTrade.Legs[0].Quantity)
	if notional > 0 {
		result.MaxProfitPct = round2(maxProfit / notional * 100)
	}

	return result
}

// Failed builds a FAILED BacktestResult, discarding any in-flight trades
// of the cycle that triggered the failure per spec.md §4.8's "core never
// partially completes" rule. priorTrades carries trades already completed
// by earlier restart cycles, which are retained and reported.
func Failed(id string, date time.Time, strategyType, underlying string, priorTrades []engine.Trade, code, message string) BacktestResult {
	result := Summarize(id, date, strategyType, underlying, priorTrades)
	result.Status = Failed
	result.ErrorCode = code
	result.ErrorMessage = message
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
