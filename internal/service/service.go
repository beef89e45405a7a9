// Package service implements the Service Facade (C10): the single
// entrypoint that validates a request, runs it through the engine on a
// bounded worker pool, and caches the result. Grounded on the teacher's
// cmd/option-replay/main.go REST-mode handler, generalized from a
// one-request-per-HTTP-call pattern into a reusable facade the HTTP layer
// and CLI both call into, with the channel-based worker pool spec.md §5
// requires for running multiple independent backtests in parallel.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/contactkeval/option-replay/internal/aggregate"
	"github.com/contactkeval/option-replay/internal/cache"
	"github.com/contactkeval/option-replay/internal/config"
	"github.com/contactkeval/option-replay/internal/data"
	"github.com/contactkeval/option-replay/internal/engine"
	"github.com/contactkeval/option-replay/internal/logger"
	"github.com/contactkeval/option-replay/internal/metrics"
)

// Facade is the single entrypoint callers use to run a backtest: it
// validates the request, checks the service-enabled flag, dispatches onto
// a bounded worker pool, and caches the (success or failure) result.
type Facade struct {
	historical data.HistoricalData
	master     data.InstrumentMaster
	results    *cache.ResultCache
	enabled    bool
	sem        chan struct{}
}

// New constructs a Facade. workerPoolSize bounds the number of backtests
// that may run concurrently; each accepted job gets its own Engine
// instance per spec.md §5 "each owns its own engine, monitor, and exit
// context instances".
func New(historical data.HistoricalData, master data.InstrumentMaster, results *cache.ResultCache, enabled bool, workerPoolSize int) *Facade {
	if workerPoolSize <= 0 {
		workerPoolSize = 1
	}
	return &Facade{
		historical: historical,
		master:     master,
		results:    results,
		enabled:    enabled,
		sem:        make(chan struct{}, workerPoolSize),
	}
}

// Run validates req, runs it through a fresh Engine on the worker pool,
// and returns the cached BacktestResult. It always returns a result (never
// a bare error) per spec.md §7 "each backtest produces exactly one
// result"; the returned error is only non-nil for a request that could
// not even be queued (e.g. ctx already cancelled).
func (f *Facade) Run(ctx context.Context, req config.BacktestRequest) (*aggregate.BacktestResult, error) {
	id := uuid.NewString()
	start := time.Now()

	if !f.enabled {
		result := aggregate.Failed(id, req.Date, string(req.StrategyType), req.Underlying, nil,
			string(engine.BacktestDisabled), "backtesting is disabled by configuration")
		f.finish(&result, start)
		return &result, nil
	}

	if err := config.Validate(req); err != nil {
		result := aggregate.Failed(id, req.Date, string(req.StrategyType), req.Underlying, nil,
			string(engine.InvalidDate), err.Error())
		f.finish(&result, start)
		return &result, nil
	}

	select {
	case f.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-f.sem }()

	log := logger.With("backtestId", id)
	log.Infof("starting backtest underlying=%s date=%s", req.Underlying, req.Date.Format("2006-01-02"))

	e := engine.New(f.historical, f.master)
	trades, err := e.Run(ctx, req)
	if err != nil {
		var taxErr *engine.TaxonomyError
		code := engine.SimulationError
		if errors.As(err, &taxErr) {
			code = taxErr.Code
		}
		log.Errorf("backtest failed: %v", err)
		result := aggregate.Failed(id, req.Date, string(req.StrategyType), req.Underlying, trades, string(code), err.Error())
		f.finish(&result, start)
		return &result, nil
	}

	result := aggregate.Summarize(id, req.Date, string(req.StrategyType), req.Underlying, trades)
	log.Infof("backtest completed trades=%d totalPnlAmount=%.2f", len(result.Trades), result.TotalPnLAmount)
	f.finish(&result, start)
	return &result, nil
}

// Get looks up a previously cached result by id.
func (f *Facade) Get(id string) (*aggregate.BacktestResult, bool) {
	return f.results.Get(id)
}

func (f *Facade) finish(result *aggregate.BacktestResult, start time.Time) {
	result.ExecutionDurationMs = time.Since(start).Milliseconds()
	f.results.Put(result.ID, result)

	metrics.RunsTotal.WithLabelValues(string(result.Status)).Inc()
	metrics.DurationSeconds.Observe(time.Since(start).Seconds())
	for _, tr := range result.Trades {
		metrics.TradesTotal.WithLabelValues(string(tr.ExitReason)).Inc()
	}
}
