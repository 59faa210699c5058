package solr

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Connection pool and retry settings, fixed per deployment.
const (
	poolIdleConns    = 10
	poolMaxConns     = 20
	transportRetries = 3

	probeAttempts    = 3
	probeBackoffStep = 500 * time.Millisecond

	// maxGetURL is the longest request sent as GET; longer parameter sets
	// switch to a form POST.
	maxGetURL = 2000
)

// retryStatus lists engine statuses retried transparently at the transport
// layer.
var retryStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// retryTransport retries transient engine statuses with exponential backoff.
// Transport errors are not retried here; only status codes are.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}
		resp, err := t.base.RoundTrip(req)
		if err != nil || !retryStatus[resp.StatusCode] || attempt >= t.retries {
			return resp, err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		time.Sleep(t.backoff << attempt)
	}
}

// conn owns the pooled HTTP client bound to one collection endpoint.
type conn struct {
	// baseURL is {base_url}/{collection}/ with a trailing slash.
	baseURL   string
	username  string
	password  string
	httpc     *http.Client
	transport *http.Transport
	logger    *zap.Logger
	closed    atomic.Bool
}

func newConn(cfg *Config, logger *zap.Logger) *conn {
	transport := &http.Transport{
		MaxIdleConnsPerHost: poolIdleConns,
		MaxConnsPerHost:     poolMaxConns,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // deployment opt-in
	}

	return &conn{
		baseURL:   cfg.BaseURL + "/" + cfg.Collection + "/",
		username:  cfg.Username,
		password:  cfg.Password,
		transport: transport,
		logger:    logger,
		httpc: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &retryTransport{
				base:    transport,
				retries: transportRetries,
				backoff: time.Second,
			},
		},
	}
}

// do sends the parameter set to the named handler and returns the reply body.
// GET is used unless the encoded URL would be too long, then a form POST.
func (c *conn) do(ctx context.Context, handler string, params url.Values) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	encoded := params.Encode()
	target := c.baseURL + handler

	var req *http.Request
	var err error
	if len(target)+1+len(encoded) > maxGetURL {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(encoded))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target+"?"+encoded, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Connection", "keep-alive")
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", handler, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read reply: %w", handler, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: engine returned %s: %s", handler, resp.Status, engineErrorMessage(body))
	}
	return body, nil
}

// ping issues a blocking health probe against the collection.
func (c *conn) ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("wt", "json")
	if _, err := c.do(ctx, "admin/ping", params); err != nil {
		return err
	}
	return nil
}

// probe pings with bounded retry and linear backoff between failed attempts.
func (c *conn) probe(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= probeAttempts; attempt++ {
		if err = c.ping(ctx); err == nil {
			return nil
		}
		if attempt < probeAttempts {
			c.logger.Warn("solr ping attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(probeBackoffStep * time.Duration(attempt)):
			}
		}
	}
	return err
}

// close releases the transport. Idempotent; later calls through do fail fast.
func (c *conn) close() {
	if c.closed.CompareAndSwap(false, true) {
		c.transport.CloseIdleConnections()
	}
}

// engineErrorMessage extracts the msg field from an engine error body,
// falling back to a truncated raw body.
func engineErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Msg string `json:"msg"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Msg != "" {
		return parsed.Error.Msg
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
