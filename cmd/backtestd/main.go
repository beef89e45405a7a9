// Command backtestd replaces the teacher's flag-based cmd/option-replay/
// main.go with a cobra command tree: "run" executes a one-shot backtest
// from a JSON request file and writes JSON+CSV reports; "serve" starts the
// HTTP facade.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/option-replay/internal/cache"
	"github.com/contactkeval/option-replay/internal/config"
	"github.com/contactkeval/option-replay/internal/data"
	"github.com/contactkeval/option-replay/internal/httpapi"
	"github.com/contactkeval/option-replay/internal/logger"
	"github.com/contactkeval/option-replay/internal/report"
	"github.com/contactkeval/option-replay/internal/service"
)

func main() {
	root := &cobra.Command{
		Use:   "backtestd",
		Short: "Options-strategy backtesting core",
	}

	root.AddCommand(newRunCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var configPath, requestPath, outDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single backtest and write JSON+CSV reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcCfg, err := config.LoadServiceConfig(configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("loading service config: %w", err)
			}
			logger.SetVerbosity(2)

			reqBytes, err := os.ReadFile(requestPath)
			if err != nil {
				return fmt.Errorf("reading request: %w", err)
			}
			var req config.BacktestRequest
			if err := json.Unmarshal(reqBytes, &req); err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}

			historical, master := buildAdapters(svcCfg)
			facade := service.New(historical, master, cache.New(svcCfg.MaxCacheSize), svcCfg.Enabled, svcCfg.WorkerPoolSize)

			start := time.Now()
			result, err := facade.Run(context.Background(), req)
			if err != nil {
				return fmt.Errorf("running backtest: %w", err)
			}

			if outDir == "" {
				outDir = req.ReportDir
			}
			if outDir == "" {
				outDir = "."
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("creating report dir: %w", err)
			}
			if err := report.WriteJSON(result, outDir); err != nil {
				return fmt.Errorf("writing JSON report: %w", err)
			}
			if err := report.WriteCSV(result, outDir); err != nil {
				return fmt.Errorf("writing CSV report: %w", err)
			}

			logger.Infof("finished in %v, status=%s trades=%d wrote reports to %s",
				time.Since(start), result.Status, len(result.Trades), outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to JSON service config")
	cmd.Flags().StringVar(&requestPath, "request", "", "path to JSON backtest request")
	cmd.Flags().StringVar(&outDir, "out", "", "report output directory (overrides request.reportDir)")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP facade",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcCfg, err := config.LoadServiceConfig(configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("loading service config: %w", err)
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				svcCfg.ListenAddr = addr
			}
			logger.SetVerbosity(1)

			historical, master := buildAdapters(svcCfg)
			facade := service.New(historical, master, cache.New(svcCfg.MaxCacheSize), svcCfg.Enabled, svcCfg.WorkerPoolSize)
			router := httpapi.NewRouter(facade)

			logger.Infof("listening on %s", svcCfg.ListenAddr)
			return router.Run(svcCfg.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to JSON service config")
	cmd.Flags().String("addr", "", "listen address (overrides config listen_addr)")

	return cmd
}

func buildAdapters(cfg config.ServiceConfig) (data.HistoricalData, data.InstrumentMaster) {
	if cfg.Provider == "rest" && cfg.BrokerBaseURL != "" {
		return data.NewRESTHistoricalData(cfg.BrokerBaseURL, cfg.BrokerAPIKey, 60),
			data.NewRESTInstrumentMaster(cfg.BrokerBaseURL, cfg.BrokerAPIKey)
	}
	return data.NewSyntheticHistoricalData(1), data.NewSyntheticInstrumentMaster(1)
}
