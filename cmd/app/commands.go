package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"SentiMatch/internal/di"
	drepo "SentiMatch/internal/domain/repository"
	"SentiMatch/pkg/config"
	"SentiMatch/pkg/logger"
	"SentiMatch/pkg/util"

	"github.com/spf13/cobra"
)

func startLogShipping(cfg *config.Config, l *logger.Logger) (io.Closer, error) {
	c, err := di.StartLogShipping(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("log shipping: %w", err)
	}
	return c, nil
}

func sweepCmd(ctx context.Context, rt *session) *cobra.Command {
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate every input/output scenario and write the reports",
		Long: `Evaluate the configured input x output grid on the loaded events and prices.

Examples:
  sentimatch sweep --config config/config.yaml
  sentimatch sweep --enqueue    # publish one job per scenario for workers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				return runDispatch(ctx, rt)
			}
			return runSweep(ctx, rt)
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "publish scenario jobs to the queue instead of evaluating locally")
	return cmd
}

func runSweep(ctx context.Context, rt *session) error {
	uc, cleanup, err := di.InitializeSweep(rt.cfg, rt.log)
	if err != nil {
		rt.log.Error("sweep initialization failed", logger.Error(err))
		return err
	}
	defer cleanup()

	sweep, err := uc.Run(ctx)
	if sweep == nil {
		return err
	}
	rt.log.Info("sweep complete",
		logger.String("run_id", sweep.RunID),
		logger.Int("scenarios", len(sweep.Scenarios)),
		logger.String("output_dir", rt.cfg.Output.Dir),
	)
	return err
}

func runDispatch(ctx context.Context, rt *session) error {
	uc, cleanup, err := di.InitializeDispatch(rt.cfg, rt.log)
	if err != nil {
		rt.log.Error("dispatch initialization failed", logger.Error(err))
		return err
	}
	defer cleanup()

	runID, n, err := uc.Dispatch(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %d scenarios enqueued\n", runID, n)
	return nil
}

func workerCmd(ctx context.Context, rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume scenario jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := di.InitializeWorker(rt.cfg, rt.log)
			if err != nil {
				rt.log.Error("worker initialization failed", logger.Error(err))
				return err
			}
			defer cleanup()
			return app.Run(ctx)
		},
	}
}

func serveCmd(ctx context.Context, rt *session) *cobra.Command {
	var sweepOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored reports and ad-hoc evaluations over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := di.InitializeServer(rt.cfg, rt.log)
			if err != nil {
				rt.log.Error("server initialization failed", logger.Error(err))
				return err
			}
			defer cleanup()

			if sweepOnStart {
				go func() {
					if _, err := s.Sweep.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						rt.log.Error("startup sweep failed", logger.Error(err))
					}
				}()
			}
			return s.App.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&sweepOnStart, "sweep", false, "run a sweep in the background once the server is up")
	return cmd
}

func fetchPricesCmd(ctx context.Context, rt *session) *cobra.Command {
	var symbol, interval, from, to string
	cmd := &cobra.Command{
		Use:   "fetch-prices",
		Short: "Download Binance klines into a CSV the sweep can read",
		Long: `Download klines page by page and write {prefix}_{symbol}_{interval}.csv.

Examples:
  sentimatch fetch-prices --from 2024-01-01 --to 2024-07-01
  sentimatch fetch-prices --symbol ETHUSDT --interval 1m --from "2024-03-01 00:00"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if symbol == "" {
				symbol = rt.cfg.Prices.Symbol
			}
			if interval == "" {
				interval = rt.cfg.Prices.Interval
			}
			iv, err := drepo.ParseInterval(interval)
			if err != nil {
				return err
			}
			start, ok := util.ParseTime(from)
			if !ok {
				return fmt.Errorf("--from %q is not a date", from)
			}
			end := util.ParseTimeDefault(to, time.Now().UTC())

			uc, cleanup, err := di.InitializeFetcher(rt.cfg, rt.log)
			if err != nil {
				rt.log.Error("fetcher initialization failed", logger.Error(err))
				return err
			}
			defer cleanup()

			n, err := uc.Fetch(ctx, drepo.KlineRange{Symbol: symbol, Interval: iv, Start: start, End: end})
			if err != nil {
				return err
			}
			fmt.Printf("%d %s %s klines written to %s\n", n, symbol, iv, rt.cfg.Binance.OutputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading pair (default prices.symbol)")
	cmd.Flags().StringVar(&interval, "interval", "", "kline interval (default prices.interval)")
	cmd.Flags().StringVar(&from, "from", "", "start date, UTC")
	cmd.Flags().StringVar(&to, "to", "", "end date, UTC (default now)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
