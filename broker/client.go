package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const DefaultRequestTimeout = 15 * time.Second

// DefaultUserAgents are rotated between tries so consecutive requests do not look identical.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
}

// Client is the HTTP client shared by the quote providers. Every call is bounded by its timeout
// and every failure is turned into an Outcome.
type Client struct {
	HTTP    *http.Client
	Timeout time.Duration
	Headers map[string]string
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout, Transport: transport},
		Timeout: timeout,
		Headers: map[string]string{
			"Accept":          "application/json,text/html;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
	}
}

// getJSON issues a GET and decodes the body into out.
// 429 is RateLimited, 404 is NotFound, any other non-2xx or network error is Transient,
// a body that is not JSON is Malformed (or RateLimited when it is a throttling page).
func (c *Client) getJSON(ctx context.Context, url, userAgent string, out any) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Transient, fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Transient, fmt.Errorf("request timed out: %w", err)
		}
		return Transient, fmt.Errorf("connection failure: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Transient, fmt.Errorf("error reading response body: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return RateLimited, fmt.Errorf("status %d", res.StatusCode)
	case res.StatusCode == http.StatusNotFound:
		return NotFound, fmt.Errorf("status %d", res.StatusCode)
	case res.StatusCode < 200 || res.StatusCode > 299:
		return Transient, fmt.Errorf("invalid status code: %d", res.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		if bytes.Contains(bytes.ToLower(body), []byte("too many requests")) {
			return RateLimited, errors.New("throttling page instead of JSON")
		}
		return Malformed, fmt.Errorf("error unmarshalling response body: %w", err)
	}

	return Success, nil
}
