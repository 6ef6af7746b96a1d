package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	crerr "github.com/cockroachdb/errors"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultUserAgent    = "Mozilla/5.0 (X11; Linux x86_64; rv:122.0) Gecko/20100101 Firefox/122.0"
	maxFetchBodyBytes   = 6 << 20
	defaultFetchTimeout = 20 * time.Second

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// ErrFetchTransient marks failures worth retrying upstream: connection
// errors, rate limiting, 5xx responses.
var ErrFetchTransient = crerr.New("fetch transient failure")

type FetcherConfig struct {
	HTTPClient        *http.Client
	Timeout           time.Duration
	MaxRetries        int
	UserAgent         string
	RequestsPerSecond float64
	Logger            *logging.Logger
}

// Fetcher retrieves raw page or API content. It knows nothing about the
// fight domain; adapters interpret what it returns.
type Fetcher struct {
	httpClient *http.Client
	maxRetries int
	userAgent  string
	limiter    *rate.Limiter
	logger     *logging.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := cloudflarebp.AddCloudFlareByPass(http.DefaultTransport)
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultFetchTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Fetcher{
		httpClient: httpClient,
		maxRetries: maxInt(cfg.MaxRetries, 0),
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
		breakers:   make(map[string]*resilience.CircuitBreaker),
	}
}

// breakerFor returns the per-host circuit breaker, creating it on first use.
// Hosts misbehave independently; one open breaker must not block the rest.
func (f *Fetcher) breakerFor(host string) *resilience.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	breaker, ok := f.breakers[host]
	if !ok {
		breaker = resilience.NewCircuitBreaker(breakerFailureThreshold, breakerOpenTimeout, 1)
		f.breakers[host] = breaker
	}
	return breaker
}

// Get fetches one URL with bounded retries. Retryable statuses back off
// linearly between attempts; non-retryable statuses fail immediately.
func (f *Fetcher) Get(ctx context.Context, fullURL string) ([]byte, error) {
	breaker := f.breakerFor(hostOf(fullURL))

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if err := breaker.Allow(); err != nil {
			return nil, fmt.Errorf("%w: %v url=%s", ErrFetchTransient, err, fullURL)
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "text/html,application/json")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			breaker.RecordFailure()
			lastErr = fmt.Errorf("%w: send request url=%s: %v", ErrFetchTransient, fullURL, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				breaker.RecordFailure()
				lastErr = fmt.Errorf("%w: read response body: %v", ErrFetchTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				breaker.RecordSuccess()
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				breaker.RecordFailure()
				lastErr = fmt.Errorf("%w: source status=%d url=%s", ErrFetchTransient, resp.StatusCode, fullURL)
			} else {
				// The host answered; only the request was wrong.
				breaker.RecordSuccess()
				return nil, fmt.Errorf("source status=%d url=%s", resp.StatusCode, fullURL)
			}
		}

		if attempt == f.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: request failed", ErrFetchTransient)
	}
	f.logger.WarnContext(ctx, "fetch failed after retries", "url", fullURL, "retries", f.maxRetries, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

func hostOf(fullURL string) string {
	parsed, err := url.Parse(fullURL)
	if err != nil || parsed.Host == "" {
		return fullURL
	}
	return parsed.Host
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
