// Command bayespredict fits a Bayesian linear estimator from an exported
// posterior trace and predicts on a feature table.
//
// Usage:
//
//	bayespredict -config run.yaml > predictions.csv
//
// Predictions are written as CSV to stdout; logs go to stderr. When the
// config sets listen, the fitted model is served over HTTP instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/bayesreg/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("bayespredict failed", log.ErrAttr(err))
		fmt.Fprintln(os.Stderr, "bayespredict:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bayespredict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "bayespredict.yaml", "path to the YAML run configuration")
	listen := fs.String("listen", "", "serve predictions over HTTP on this address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetupLoggerTo(stderr, level)

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	if err := app.fit(ctx); err != nil {
		return err
	}

	if cfg.Listen != "" {
		return app.serve(ctx, cfg.Listen)
	}
	return app.predict(ctx, stdout)
}
