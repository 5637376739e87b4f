package httpx

import (
	"errors"
	"net/http"
	"time"
)

const (
	defaultRetryMax  = 2
	defaultUserAgent = "mathasvc/1.0"
)

// Transport applies the User-Agent and a bounded retry to every request.
type Transport struct {
	Base http.RoundTripper

	UserAgent string

	// RetryMax is the number of retries after the first attempt.
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Only replayable requests are retried: GET/HEAD without a body.
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", t.userAgent())
		}

		resp, err := base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (t *Transport) userAgent() string {
	if t.UserAgent == "" {
		return defaultUserAgent
	}
	return t.UserAgent
}

// NewClient builds the client used for metadata calls and audio transfers.
// A zero timeout leaves the overall request unbounded; header and TLS
// timeouts still apply.
func NewClient(timeout time.Duration) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	}

	return &http.Client{
		Transport: &Transport{
			Base:     base,
			RetryMax: defaultRetryMax,
		},
		Timeout: timeout,
	}
}
