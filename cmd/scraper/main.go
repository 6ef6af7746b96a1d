package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/app"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/config"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/observability"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
)

func main() {
	sourceFilter := flag.String("source", "", "run only the named source (ufc or tapology)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	switch *sourceFilter {
	case "":
	case "ufc":
		cfg.Sources.UFCEnabled = true
		cfg.Sources.TapologyEnabled = false
	case "tapology":
		cfg.Sources.UFCEnabled = false
		cfg.Sources.TapologyEnabled = true
	default:
		fmt.Fprintf(os.Stderr, "unknown source %q\n", *sourceFilter)
		os.Exit(2)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownUptrace(ctx); err != nil {
			logger.Error("shutdown uptrace", "error", err)
		}
	}()

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stopPyroscope(); err != nil {
			logger.Error("stop pyroscope", "error", err)
		}
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, runErr := application.Orchestrator.Run(ctx)

	if out, err := sonic.MarshalIndent(stats, "", "  "); err == nil {
		fmt.Println(string(out))
	}

	if runErr != nil {
		logger.Error("scrape run failed", "run_id", stats.RunID, "error", runErr)
		os.Exit(1)
	}
}
