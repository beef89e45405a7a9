// Package metrics registers the prometheus collectors the service facade
// and HTTP layer update as backtests run. Grounded on the rest of the
// retrieved corpus's common prometheus/client_golang wiring pattern (the
// teacher itself carries no metrics layer); purely ambient observability
// that never influences simulation outcomes, per spec.md §5
// "cancellation/timeouts not modeled" and SPEC_FULL.md §4.12.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts completed backtest runs by terminal status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtest_runs_total",
		Help: "Total number of backtest runs by terminal status.",
	}, []string{"status"})

	// DurationSeconds observes end-to-end backtest execution time.
	DurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backtest_duration_seconds",
		Help:    "Backtest execution duration in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	// TradesTotal counts completed trades by exit reason.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtest_trades_total",
		Help: "Total number of completed trades by exit reason.",
	}, []string{"exit_reason"})

	// CacheEvictionsTotal counts FIFO evictions from the result cache.
	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backtest_cache_evictions_total",
		Help: "Total number of result cache evictions.",
	})
)
