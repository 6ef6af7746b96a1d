package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
)

var errWebhookTransient = crerr.New("alert webhook transient failure")

type WebhookConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Webhook posts operator alerts for failed runs. Callers treat it as
// fire-and-forget: a failed alert is logged, never propagated.
type Webhook struct {
	client *http.Client
	url    string
	token  string
	logger *logging.Logger
}

func NewWebhook(cfg WebhookConfig, logger *logging.Logger) *Webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Webhook{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimSpace(cfg.URL),
		token:  strings.TrimSpace(cfg.Token),
		logger: logger,
	}
}

func (w *Webhook) SendAlert(ctx context.Context, source, message string) error {
	endpoint, err := validateHTTPURL(w.url)
	if err != nil {
		return crerr.Wrap(err, "invalid ALERT_WEBHOOK_URL")
	}

	body, err := sonic.Marshal(map[string]any{
		"source":  source,
		"message": truncateForLog(message, 4096),
		"sentAt":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return crerr.Wrap(err, "marshal alert payload")
	}

	preview := buildAlertPreview(endpoint, source, truncateForLog(message, 512))
	w.logger.InfoContext(ctx, "sending failure alert", "source", source, "preview", preview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create alert request")
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post alert: %v", errWebhookTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: post alert status=%d body=%s", errWebhookTransient, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

func buildAlertPreview(endpoint, source, message string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("POST ")
	_, _ = buf.WriteString(endpoint)
	_, _ = buf.WriteString(" source=")
	_, _ = buf.WriteString(source)
	_, _ = buf.WriteString(" message=")
	_, _ = buf.WriteString(message)

	return buf.String()
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
