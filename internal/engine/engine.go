package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-replay/internal/candle"
	"github.com/contactkeval/option-replay/internal/config"
	"github.com/contactkeval/option-replay/internal/data"
	"github.com/contactkeval/option-replay/internal/exit"
	"github.com/contactkeval/option-replay/internal/merge"
	"github.com/contactkeval/option-replay/internal/monitor"
	"github.com/contactkeval/option-replay/internal/position"
	"github.com/contactkeval/option-replay/internal/strike"
)

// Engine drives one day's backtest: entry, monitored exit, forced
// square-off, and optional auto-restart, per spec.md §4.6. Each backtest
// owns its own Engine instance; Engine holds no mutable state across
// Run calls besides what is reset at the top of each run.
type Engine struct {
	historical data.HistoricalData
	master     data.InstrumentMaster
}

// New constructs an Engine against the given collaborators.
func New(historical data.HistoricalData, master data.InstrumentMaster) *Engine {
	return &Engine{historical: historical, master: master}
}

// Run executes the full day loop for req and returns the ordered trade
// list, or a TaxonomyError on any fatal failure.
func (e *Engine) Run(ctx context.Context, req config.BacktestRequest) ([]Trade, error) {
	req = req.WithDefaults()

	if err := validateDate(req.Date); err != nil {
		return nil, err
	}

	indexToken, err := e.master.IndexToken(req.Underlying)
	if err != nil {
		return nil, newTaxonomyError(InstrumentNotFound, "unknown underlying "+req.Underlying, err)
	}

	indexCandles, err := e.historical.FetchDayCandles(ctx, indexToken, req.Date, req.CandleInterval)
	if err != nil {
		return nil, newTaxonomyError(DataFetchFailed, "index candles unavailable", err)
	}
	if len(indexCandles) == 0 {
		return nil, newTaxonomyError(DataFetchFailed, "no index candles for "+req.Date.Format("2006-01-02"), nil)
	}

	master, err := e.master.FetchNFO(ctx)
	if err != nil {
		return nil, newTaxonomyError(DataFetchFailed, "instrument master unavailable", err)
	}

	quantity := req.Lots * e.lotSize(master, req.Underlying)

	startTime := clockOn(req.Date, req.StartTime)
	cutoff := clockOn(req.Date, req.AutoSquareOffTime)

	// Step 2: find the first index candle at or after startTime.
	startIdx := sort.Search(len(indexCandles), func(i int) bool {
		return !indexCandles[i].Timestamp.Before(startTime)
	})
	if startIdx >= len(indexCandles) {
		return nil, nil
	}

	var trades []Trade
	restartsSoFar := 0
	cycleIdx := startIdx
	wasRestarted := false

	for {
		spotCandle := indexCandles[cycleIdx]
		trade, err := e.runCycle(ctx, req, master, spotCandle, cutoff, quantity, wasRestarted)
		if err != nil {
			// Prior cycles already completed in this run are retained and
			// reported alongside the failure, per spec.md §4.8/§7.
			return trades, err
		}
		if trade == nil {
			// Ran out of candles before a single tick could be merged.
			break
		}
		trades = append(trades, *trade)

		if !req.AutoRestartEnabled || restartsSoFar >= req.MaxAutoRestarts || !exit.IsTargetHit(trade.ExitReason) {
			break
		}

		// Step 6: locate the next index candle strictly after the exit
		// tick; restart only if it is still before the cutoff.
		nextIdx := sort.Search(len(indexCandles), func(i int) bool {
			return indexCandles[i].Timestamp.After(trade.ExitTime)
		})
		if nextIdx >= len(indexCandles) || !indexCandles[nextIdx].Timestamp.Before(cutoff) {
			break
		}

		cycleIdx = nextIdx
		restartsSoFar++
		wasRestarted = true
	}

	return trades, nil
}

// runCycle executes one entry-to-exit cycle (spec.md §4.6 steps 3-5)
// starting from spotCandle, returning nil (not an error) if no tick ever
// merged before the cutoff.
func (e *Engine) runCycle(ctx context.Context, req config.BacktestRequest, master []candle.Instrument, spotCandle candle.Candle, cutoff time.Time, quantity int, wasRestarted bool) (*Trade, error) {
	spot, _ := spotCandle.Close.Float64()
	legs, atm, err := strike.Resolve(master, req.Underlying, req.ExpiryDate, spot)
	if err != nil {
		return nil, newTaxonomyError(InstrumentNotFound, err.Error(), err)
	}

	ceCandles, err := e.historical.FetchOptionCandles(ctx, req.Underlying, atm, candle.CE, req.ExpiryDate, req.Date, req.CandleInterval)
	if err != nil {
		return nil, newTaxonomyError(DataFetchFailed, "CE candles unavailable", err)
	}
	peCandles, err := e.historical.FetchOptionCandles(ctx, req.Underlying, atm, candle.PE, req.ExpiryDate, req.Date, req.CandleInterval)
	if err != nil {
		return nil, newTaxonomyError(DataFetchFailed, "PE candles unavailable", err)
	}

	ticks := merge.Ticks(legs.Call.Token, legs.Put.Token, ceCandles, peCandles)
	ticks = ticksFromAtOrBeforeCutoff(ticks, spotCandle.Timestamp, cutoff)
	if len(ticks) == 0 {
		return nil, nil
	}

	direction := candle.Sell
	directionMultiplier := -1.0
	if req.StrategyType == config.ATMStraddle {
		direction = candle.Buy
		directionMultiplier = 1.0
	}

	entryTick := ticks[0]
	combinedEntryPremium := entryTick.CeLTP.Add(entryTick.PeLTP)
	combinedEntryPremiumF, _ := combinedEntryPremium.Float64()

	chainCfg := exit.ChainConfig{
		ForcedExitEnabled:     true,
		TrailingStopEnabled:   req.TrailingStopEnabled,
		TrailingActivationPts: req.TrailingActivationPts,
		TrailingDistancePts:   req.TrailingDistancePts,
	}
	if req.SLTargetMode == config.ModePremium {
		chainCfg.Mode = exit.ModePremium
	} else {
		chainCfg.Mode = exit.ModePoints
	}
	chain := exit.Build(chainCfg)

	executionID := fmt.Sprintf("%s-%d", req.Underlying, spotCandle.Timestamp.Unix())
	lastDecision := exit.Decision{Kind: exit.None}
	callbacks := exit.Callbacks{
		ExitAll: func(reason exit.Reason) {
			lastDecision = exit.Decision{Kind: exit.ExitAll, Reason: reason}
		},
	}

	m := monitor.New(executionID, directionMultiplier, chain, callbacks, 2)
	m.AddLeg(position.Leg{
		Symbol: legs.Call.TradingSymbol, Token: legs.Call.Token,
		Direction: direction, EntryPrice: entryTick.CeLTP, CurrentPrice: entryTick.CeLTP, Quantity: quantity,
	})
	m.AddLeg(position.Leg{
		Symbol: legs.Put.TradingSymbol, Token: legs.Put.Token,
		Direction: direction, EntryPrice: entryTick.PeLTP, CurrentPrice: entryTick.PeLTP, Quantity: quantity,
	})

	m.ConfigurePremiumMode(combinedEntryPremiumF, req.TargetDecayPct, req.StopLossExpansionPct)
	m.ConfigurePointsMode(req.TargetPoints, req.StopLossPoints)
	m.SetForcedExitTime(cutoff)

	lastTick := entryTick
	for _, tick := range ticks {
		lastTick = tick
		m.OnTick(tick)
		if !m.Active() {
			break
		}
	}

	if m.Active() {
		// Step 5: forced square-off at cutoff using the last seen prices.
		lastDecision = exit.Decision{Kind: exit.ExitAll, Reason: exit.TimeBasedForcedExit}
		m.Stop()
	}

	exitCe, _ := lastTick.CeLTP.Float64()
	exitPe, _ := lastTick.PeLTP.Float64()
	entryCe, _ := entryTick.CeLTP.Float64()
	entryPe, _ := entryTick.PeLTP.Float64()

	pnlPoints := (exitCe-entryCe)*directionMultiplier + (exitPe-entryPe)*directionMultiplier
	pnlAmount := decimal.NewFromFloat(pnlPoints * float64(quantity))

	return &Trade{
		ID:        uuid.NewString(),
		EntryTime: entryTick.Timestamp,
		ExitTime:  lastTick.Timestamp,
		Strike:    atm,
		Legs: []TradeLeg{
			{Symbol: legs.Call.TradingSymbol, Token: legs.Call.Token, EntryPrice: entryTick.CeLTP, ExitPrice: lastTick.CeLTP, Quantity: quantity},
			{Symbol: legs.Put.TradingSymbol, Token: legs.Put.Token, EntryPrice: entryTick.PeLTP, ExitPrice: lastTick.PeLTP, Quantity: quantity},
		},
		CombinedEntryPremium: combinedEntryPremium,
		PnLPoints:            pnlPoints,
		PnLAmount:            pnlAmount,
		ExitReason:           lastDecision.Reason,
		WasRestarted:         wasRestarted,
	}, nil
}

// lotSize prefers the lot size carried by the underlying's own instrument
// records, falling back to the instrument master's compiled-in default.
func (e *Engine) lotSize(master []candle.Instrument, underlying string) int {
	for _, inst := range master {
		if inst.Underlying == underlying && inst.LotSize > 0 {
			return inst.LotSize
		}
	}
	return e.master.DefaultLotSize(underlying)
}

func validateDate(date time.Time) error {
	now := time.Now().In(candle.IST)
	if date.After(now) {
		return newTaxonomyError(InvalidDate, "backtest date is in the future", nil)
	}
	wd := date.In(candle.IST).Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return newTaxonomyError(InvalidDate, "backtest date falls on a weekend", nil)
	}
	return nil
}

func clockOn(date time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		t, _ = time.Parse("15:04", "15:10")
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, candle.IST)
}

// ticksFromAtOrBeforeCutoff drops ticks before from and truncates the
// slice at the first tick after cutoff, preserving merge order.
func ticksFromAtOrBeforeCutoff(ticks []candle.MergedTick, from, cutoff time.Time) []candle.MergedTick {
	out := make([]candle.MergedTick, 0, len(ticks))
	for _, t := range ticks {
		if t.Timestamp.Before(from) {
			continue
		}
		if t.Timestamp.After(cutoff) {
			break
		}
		out = append(out, t)
	}
	return out
}
