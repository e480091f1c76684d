// Package httpx builds the HTTP client used to fetch remote images.
package httpx

import (
	"errors"
	"net/http"
	"time"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultRetryMax = 2

	// UserAgent is sent when the request does not set one.
	UserAgent = "imgpdf/1 (+https://github.com/porticus-lab/go-img-pdf)"
)

// Transport retries replayable requests that fail before a response
// arrives. HTTP error statuses are returned to the caller untouched.
type Transport struct {
	Base http.RoundTripper

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

	// Only GET/HEAD without a body can be replayed.
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	retries := t.RetryMax
	if retries < 0 || !canRetry {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", UserAgent)
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

// NewClient returns a client with bounded retries and an overall timeout.
// A non-positive timeout selects the default of 20 seconds.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	return &http.Client{
		Transport: &Transport{Base: base, RetryMax: defaultRetryMax},
		Timeout:   timeout,
	}
}
