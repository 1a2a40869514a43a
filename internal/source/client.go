package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	apperrors "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/errors"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/logger"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/metrics"
)

const userAgent = "VettingIntelligenceHub/1.0"

// Client is the HTTP client shared by all adapters. It owns the per-request
// timeout, default headers (each source injects its own auth header), status
// classification, and upstream metrics.
type Client struct {
	source  record.SourceID
	httpc   *http.Client
	headers map[string]string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClient builds a Client for one source. headers are sent on every
// request; pass the source's auth header here. metrics may be nil in tests.
func NewClient(source record.SourceID, timeout time.Duration, headers map[string]string, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	h := map[string]string{
		"Accept":     "application/json",
		"User-Agent": userAgent,
	}
	for k, v := range headers {
		if v != "" {
			h[k] = v
		}
	}
	return &Client{
		source:  source,
		httpc:   &http.Client{Timeout: timeout},
		headers: h,
		metrics: m,
		logger:  logger.WithComponent("upstream-client").With("source", string(source)),
	}
}

// GetJSON performs a GET against rawURL with the given query parameters and
// decodes the response body into out. Failures are classified into the
// application taxonomy: network errors, 5xx, and 429 are transient; other
// 4xx are permanent; a body that is not the expected JSON shape is a mapping
// error. Raw response bodies never end up in returned error messages.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	u := rawURL
	if len(params) > 0 {
		u = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "building request for %s", c.source)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(string(c.source)).Observe(elapsed.Seconds())
	}
	if err != nil {
		c.observe("error")
		c.logger.Warn("upstream request failed", "url", rawURL, "error", err)
		return fmt.Errorf("%w: %s: %v", apperrors.ErrUpstreamTransient, c.source, err)
	}
	defer resp.Body.Close()

	c.observe(statusClass(resp.StatusCode))
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s rate limited", apperrors.ErrUpstreamTransient, c.source)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s returned %d", apperrors.ErrUpstreamTransient, c.source, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, c.source)
	default:
		return fmt.Errorf("%w: %s returned %d", apperrors.ErrInvalidInput, c.source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("%w: %s: reading body: %v", apperrors.ErrUpstreamTransient, c.source, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("upstream payload not in expected shape", "url", rawURL, "error", err)
		return fmt.Errorf("%w: source=%s", apperrors.ErrMapping, c.source)
	}
	return nil
}

func (c *Client) observe(status string) {
	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues(string(c.source), status).Inc()
	}
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
