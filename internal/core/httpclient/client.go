package httpclient

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/telemetry"

	"go.uber.org/zap"
)

const defaultUserAgent = "parcel-tracker/1.0"

// Option configures a client built by New.
type Option func(*transport)

// WithUserAgent overrides the User-Agent set on requests that carry none.
func WithUserAgent(ua string) Option {
	return func(t *transport) { t.userAgent = ua }
}

// WithHeader sets a header on every request, e.g. a webhook secret.
func WithHeader(key, value string) Option {
	return func(t *transport) { t.headers.Set(key, value) }
}

// WithTransport replaces http.DefaultTransport as the next hop.
func WithTransport(rt http.RoundTripper) Option {
	return func(t *transport) { t.next = rt }
}

// transport logs outbound calls with the query string and credentials
// stripped, and records latency per host and status class.
type transport struct {
	next      http.RoundTripper
	userAgent string
	headers   http.Header
}

// New returns an http.Client whose calls are logged and measured.
func New(timeout time.Duration, opts ...Option) *http.Client {
	t := &transport{
		next:      http.DefaultTransport,
		userAgent: defaultUserAgent,
		headers:   http.Header{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return &http.Client{Transport: t, Timeout: timeout}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 || (t.userAgent != "" && req.Header.Get("User-Agent") == "") {
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header[k] = v
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", t.userAgent)
		}
	}

	target := redact(req.URL)
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.OutboundLatency.WithLabelValues(req.URL.Host, "error").Observe(elapsed.Seconds())
		logger.Get().Warn("Outbound request failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.OutboundLatency.WithLabelValues(req.URL.Host, statusClass(resp.StatusCode)).Observe(elapsed.Seconds())
	logger.Get().Debug("Outbound request",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", elapsed),
	)
	return resp, nil
}

func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	c.Fragment = ""
	return c.String()
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
