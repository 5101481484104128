// Package reporting talks to the read-only collector and KPI endpoints of the
// grid monitoring platform.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "grid-assistant/1.0"
)

type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindConnection ErrorKind = "connection"
	KindStatus     ErrorKind = "http_status"
	KindOther      ErrorKind = "other"
)

// RequestError is returned for every failed call. StatusCode is set for
// KindStatus only.
type RequestError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("reporting %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("reporting %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// KindOf classifies err; nil and unknown errors are KindOther.
func KindOf(err error) ErrorKind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindOther
}

type Client struct {
	HTTP      *http.Client
	Logger    *slog.Logger
	UserAgent string
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		Logger:    logger,
		UserAgent: DefaultUserAgent,
	}
}

// Get performs a single GET. There is no retry. Non-2xx responses come back
// with their body and a KindStatus error.
func (c *Client) Get(ctx context.Context, u string) (int, []byte, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}

	log.Debug("reporting: request", "method", http.MethodGet, "url", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, &RequestError{Kind: KindOther, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		log.Debug("reporting: request failed", "url", u, "error", err)
		return 0, nil, &RequestError{Kind: classify(err), URL: u, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &RequestError{Kind: classify(err), URL: u, Err: err}
	}
	log.Debug("reporting: response", "url", u, "status", resp.StatusCode, "bytes", len(b), "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, b, &RequestError{Kind: KindStatus, URL: u, StatusCode: resp.StatusCode}
	}
	return resp.StatusCode, b, nil
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnection
	}
	var ue *url.Error
	if errors.As(err, &ue) && strings.Contains(strings.ToLower(ue.Err.Error()), "connection") {
		return KindConnection
	}
	return KindOther
}
