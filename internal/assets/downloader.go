package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	crerr "github.com/cockroachdb/errors"
	resty "github.com/go-resty/resty/v2"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
)

// ErrDownloadTransient marks image fetch failures that were retried and
// still failed. A missing image degrades the record; it never fails a run.
var ErrDownloadTransient = crerr.New("asset download transient failure")

// Asset is one image to persist. TargetPath is derived from the canonical
// identity key by the caller, so an existing file means the work is done
// regardless of which URL it originally came from.
type Asset struct {
	URL        string
	TargetPath string
}

type DownloaderConfig struct {
	Client     *resty.Client
	Timeout    time.Duration
	MaxRetries int
	// Delay between requests. Unattended runs use a longer delay than
	// interactive ones to stay under source rate limits.
	InterRequestDelay time.Duration
	Logger            *logging.Logger
}

type Downloader struct {
	client     *resty.Client
	maxRetries int
	delay      time.Duration
	logger     *logging.Logger
}

func NewDownloader(cfg DownloaderConfig) *Downloader {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	client := cfg.Client
	if client == nil {
		client = resty.New()
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	} else if client.GetClient().Timeout <= 0 {
		client.SetTimeout(30 * time.Second)
	}

	return &Downloader{
		client:     client,
		maxRetries: cfg.MaxRetries,
		delay:      cfg.InterRequestDelay,
		logger:     logger,
	}
}

// Download persists one image, skipping the request entirely when the target
// already exists.
func (d *Downloader) Download(ctx context.Context, sourceURL, targetPath string) error {
	if _, err := os.Stat(targetPath); err == nil {
		d.logger.DebugContext(ctx, "asset already present, skipping", "path", targetPath)
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		resp, err := d.client.R().SetContext(ctx).Get(sourceURL)
		if err != nil {
			lastErr = fmt.Errorf("%w: fetch %s: %v", ErrDownloadTransient, sourceURL, err)
		} else if resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
			return writeAsset(targetPath, resp.Body())
		} else if isRetryableStatus(resp.StatusCode()) {
			lastErr = fmt.Errorf("%w: fetch %s status=%d", ErrDownloadTransient, sourceURL, resp.StatusCode())
		} else {
			return fmt.Errorf("fetch %s status=%d", sourceURL, resp.StatusCode())
		}

		if attempt == d.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: fetch %s", ErrDownloadTransient, sourceURL)
	}
	return lastErr
}

// DownloadBatch downloads each asset in order with the configured throttle.
// Per-item failures are collected and returned; one bad image never aborts
// the rest of the batch.
func (d *Downloader) DownloadBatch(ctx context.Context, items []Asset) []error {
	var failures []error
	for i, item := range items {
		if item.URL == "" || item.TargetPath == "" {
			continue
		}
		if err := d.Download(ctx, item.URL, item.TargetPath); err != nil {
			if ctx.Err() != nil {
				failures = append(failures, ctx.Err())
				return failures
			}
			d.logger.WarnContext(ctx, "asset download failed", "url", item.URL, "error", err)
			failures = append(failures, err)
		}

		if d.delay > 0 && i < len(items)-1 {
			timer := time.NewTimer(d.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return failures
			case <-timer.C:
			}
		}
	}
	return failures
}

func writeAsset(targetPath string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}
	if err := os.WriteFile(targetPath, body, 0o644); err != nil {
		return fmt.Errorf("write asset %s: %w", targetPath, err)
	}
	return nil
}

func isRetryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
