package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const userAgent = "intel-etl/1.0"

// Client is a retry-aware JSON fetcher shared by all connectors. HTTPClient,
// Policy and Sleep are exported so tests can substitute them.
type Client struct {
	HTTPClient *http.Client
	Policy     Policy
	Sleep      func(time.Duration)
	logger     *log.Logger
}

// Request identifies one upstream lookup. Source and Input are carried into
// errors and log lines, never onto the wire.
type Request struct {
	Source string
	Input  string
	URL    string
	Header http.Header
}

// NewClient creates a fetcher with the given retry policy.
func NewClient(policy Policy, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		Policy: policy,
		Sleep:  time.Sleep,
		logger: logger,
	}
}

// GetJSON fetches req.URL and decodes the body as a JSON object. Transport
// errors and retryable statuses are retried with exponential backoff up to
// the policy's attempt limit; any other non-2xx status fails immediately
// without retrying.
func (c *Client) GetJSON(ctx context.Context, req Request) (map[string]interface{}, error) {
	var lastErr error
	lastStatus := 0
	attempts := c.Policy.attempts()

	for attempt := 0; attempt < attempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
		if err != nil {
			return nil, &Error{Source: req.Source, Input: req.Input, Err: fmt.Errorf("failed to create request: %w", err)}
		}
		for key, values := range req.Header {
			for _, value := range values {
				httpReq.Header.Add(key, value)
			}
		}
		if httpReq.Header.Get("Accept") == "" {
			httpReq.Header.Set("Accept", "application/json")
		}
		if httpReq.Header.Get("User-Agent") == "" {
			httpReq.Header.Set("User-Agent", userAgent)
		}

		resp, err := c.HTTPClient.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if ctx.Err() != nil {
				break
			}
			if attempt < attempts-1 {
				backoff := c.Policy.backoff(attempt)
				c.logger.Warn("Request failed, retrying", "source", req.Source, "input", req.Input, "backoff", backoff, "err", err)
				c.Sleep(backoff)
				continue
			}
			break
		}

		if c.Policy.retryable(resp.StatusCode) {
			resp.Body.Close()
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("transient error: status %d", resp.StatusCode)
			if attempt < attempts-1 {
				backoff := c.Policy.backoff(attempt)
				c.logger.Warn("Transient upstream error, retrying", "source", req.Source, "input", req.Input, "status", resp.StatusCode, "backoff", backoff)
				c.Sleep(backoff)
				continue
			}
			break
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, &Error{
				Source: req.Source,
				Input:  req.Input,
				Status: resp.StatusCode,
				Err:    fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			}
		}

		var payload map[string]interface{}
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			return nil, &Error{
				Source: req.Source,
				Input:  req.Input,
				Status: resp.StatusCode,
				Err:    fmt.Errorf("failed to decode response: %w", err),
			}
		}
		return payload, nil
	}

	return nil, &Error{
		Source: req.Source,
		Input:  req.Input,
		Status: lastStatus,
		Err:    fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr),
	}
}
