package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/config"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/livetrack"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape/tapology"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape/ufc"
)

func main() {
	eventURL := flag.String("url", "", "event page or API url to track (required)")
	sourceName := flag.String("source", "tapology", "source adapter for the url (ufc or tapology)")
	interval := flag.Duration("interval", 30*time.Second, "poll interval")
	outputDir := flag.String("out", ".", "directory for the snapshot history file")
	flag.Parse()

	if *eventURL == "" {
		fmt.Fprintln(os.Stderr, "usage: livetrack -url <event url> [-source ufc|tapology] [-interval 30s] [-out dir]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	fetcher := scrape.NewFetcher(scrape.FetcherConfig{
		Timeout:           cfg.FetchTimeout,
		MaxRetries:        cfg.FetchMaxRetries,
		UserAgent:         cfg.FetchUserAgent,
		RequestsPerSecond: cfg.FetchRequestsPerSecond,
		Logger:            logger,
	})

	capture, err := buildCapture(*sourceName, *eventURL, fetcher)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	poller := livetrack.NewPoller(*eventURL, capture, livetrack.PollerConfig{
		Interval:  *interval,
		OutputDir: *outputDir,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("live tracking started", "url", *eventURL, "source", *sourceName, "interval", interval.String())

	path, err := poller.Run(ctx)
	if err != nil {
		logger.Error("live tracking failed", "error", err)
		os.Exit(1)
	}
	if path != "" {
		logger.Info("live tracking finished", "history", path)
	}
}

func buildCapture(sourceName, eventURL string, fetcher *scrape.Fetcher) (livetrack.SnapshotFunc, error) {
	switch sourceName {
	case "tapology":
		return func(ctx context.Context) (livetrack.Snapshot, error) {
			body, err := fetcher.Get(ctx, eventURL)
			if err != nil {
				return livetrack.Snapshot{}, err
			}
			raw, err := tapology.ParseEventPage(body, eventURL)
			if err != nil {
				return livetrack.Snapshot{}, err
			}
			return livetrack.BuildSnapshot(raw, time.Now()), nil
		}, nil
	case "ufc":
		return func(ctx context.Context) (livetrack.Snapshot, error) {
			body, err := fetcher.Get(ctx, eventURL)
			if err != nil {
				return livetrack.Snapshot{}, err
			}
			events, err := ufc.ParseEvents(body)
			if err != nil {
				return livetrack.Snapshot{}, err
			}
			if len(events) == 0 {
				return livetrack.Snapshot{}, crerr.New("payload contains no events")
			}
			return livetrack.BuildSnapshot(events[0], time.Now()), nil
		}, nil
	default:
		return nil, crerr.Newf("unknown source %q", sourceName)
	}
}
