package netutil

import (
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// ClientOptions tunes NewClient. Zero fields take the defaults above;
// RetryAttempts < 0 disables retries and RetryBackoff < 0 retries at once.
type ClientOptions struct {
	DialTimeout     time.Duration
	ResponseTimeout time.Duration
	Timeout         time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
	// RetryStatus also retries idempotent requests answered with 429/502/503/504.
	RetryStatus bool
}

// NewClient returns an HTTP client with pooled connections and a retrying transport.
func NewClient(opts ClientOptions) *http.Client {
	dial := orDuration(opts.DialTimeout, defaultDialTimeout)
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dial, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: orDuration(opts.ResponseTimeout, defaultResponseTimeout),
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   orDuration(opts.Timeout, defaultClientTimeout),
		Transport: NewRetryTransport(transport, opts),
	}
}

// NewRetryTransport wraps base with the retry policy from opts.
func NewRetryTransport(base http.RoundTripper, opts ClientOptions) http.RoundTripper {
	retries := opts.RetryAttempts
	switch {
	case retries == 0:
		retries = defaultRetryAttempts
	case retries < 0:
		retries = 0
	}
	backoff := opts.RetryBackoff
	if backoff == 0 {
		backoff = defaultRetryBackoff
	}
	return &retryTransport{
		base:        base,
		maxRetries:  retries,
		backoff:     backoff,
		retryStatus: opts.RetryStatus,
	}
}

type retryTransport struct {
	base        http.RoundTripper
	maxRetries  int
	backoff     time.Duration
	retryStatus bool
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1
	idempotent := req.Method == http.MethodGet || req.Method == http.MethodHead
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		currReq := req
		if attempt > 1 {
			currReq = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				currReq.Body = body
			} else if req.Body != nil && req.Body != http.NoBody {
				return nil, lastErr
			}
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			if !t.retryStatus || !idempotent || attempt == attempts || !ShouldRetryStatus(resp.StatusCode) {
				return resp, nil
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = nil
		} else {
			lastErr = err
			if !ShouldRetry(err) || attempt == attempts {
				break
			}
		}

		delay := t.backoff * time.Duration(attempt)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
