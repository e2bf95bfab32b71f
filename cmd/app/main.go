package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"SentiMatch/pkg/config"
	"SentiMatch/pkg/logger"

	"github.com/spf13/cobra"
)

// session holds what every subcommand builds from the global flags.
type session struct {
	cfg     *config.Config
	log     *logger.Logger
	shipper io.Closer
}

func (r *session) close() {
	if r.shipper != nil {
		if err := r.shipper.Close(); err != nil {
			r.log.Warn("log shipping close error", logger.Error(err))
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, rt := rootCmd(ctx)
	err := root.Execute()
	rt.close()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd(ctx context.Context) (*cobra.Command, *session) {
	var configPath string
	rt := &session{}

	root := &cobra.Command{
		Use:           "sentimatch",
		Short:         "Backtest how often news sentiment matches the following price move",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			l, err := logger.New(&logger.Config{
				Level:      cfg.Log.Level,
				Format:     cfg.Log.Format,
				Output:     cfg.Log.Output,
				TimeFormat: cfg.Log.TimeFormat,
			})
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			rt.cfg = cfg
			rt.log = l.With(logger.String("env", cfg.Environment), logger.String("cmd", cmd.Name()))
			rt.shipper, err = startLogShipping(cfg, rt.log)
			return err
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(sweepCmd(ctx, rt))
	root.AddCommand(workerCmd(ctx, rt))
	root.AddCommand(serveCmd(ctx, rt))
	root.AddCommand(fetchPricesCmd(ctx, rt))
	return root, rt
}
