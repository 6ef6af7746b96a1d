package livetrack

import (
	"context"
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
)

// SnapshotFunc captures the event's current state. Implementations wrap a
// fetch plus extraction for one source URL.
type SnapshotFunc func(ctx context.Context) (Snapshot, error)

type PollerConfig struct {
	Interval  time.Duration
	OutputDir string
	Logger    *logging.Logger
}

// Poller drives one live-tracking session: capture, diff, log, repeat.
// Cancelling the context stops the loop and flushes the session history to
// the output directory before returning.
type Poller struct {
	capture   SnapshotFunc
	session   *Session
	interval  time.Duration
	outputDir string
	logger    *logging.Logger
}

func NewPoller(sourceURL string, capture SnapshotFunc, cfg PollerConfig) *Poller {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		capture:   capture,
		session:   NewSession(sourceURL),
		interval:  interval,
		outputDir: cfg.OutputDir,
		logger:    logger,
	}
}

// Run polls until the context is cancelled. A failed capture is logged and
// skipped; the session continues with the next tick.
func (p *Poller) Run(ctx context.Context) (string, error) {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			path, err := p.session.WriteHistory(p.outputDir)
			if err != nil {
				return "", err
			}
			if path != "" {
				p.logger.Info("snapshot history written", "path", path, "snapshots", len(p.session.entries))
			}
			return path, nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	snapshot, err := p.capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.WarnContext(ctx, "live capture failed, keeping previous state", "error", err)
		return
	}

	changes := p.session.Observe(snapshot)
	for _, change := range changes {
		p.logger.InfoContext(ctx, "live change detected", "type", change.Type, "detail", change.Description)
	}
	if current := CurrentlyLive(*p.session.Previous()); current != nil {
		p.logger.DebugContext(ctx, "inferred current fight", "fight", current.label())
	}
}
