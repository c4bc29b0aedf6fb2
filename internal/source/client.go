package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a minimal GraphQL-over-HTTPS client for the indexing service,
// with bounded exponential-backoff retries per request.
type Client struct {
	Endpoint       string
	HTTPClient     *http.Client
	MaxRetries     int
	BackoffBase    time.Duration
	RequestTimeout time.Duration
}

// NewClient creates a subgraph client with the given retry policy.
func NewClient(endpoint string, maxRetries int, backoffBase, requestTimeout time.Duration) *Client {
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Client{
		Endpoint:       endpoint,
		HTTPClient:     &http.Client{Timeout: requestTimeout},
		MaxRetries:     maxRetries,
		BackoffBase:    backoffBase,
		RequestTimeout: requestTimeout,
	}
}

type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Do executes one GraphQL query, retrying transient failures with exponential
// backoff, and decodes the response data into out. It returns ErrTimeout when
// the deadline was exceeded and ErrUnavailable for any other exhausted
// failure; both carry the originating cause.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.BackoffBase * time.Duration(1<<uint(attempt-1))
			log.Printf("[WARN] subgraph query failed (attempt %d/%d): %v, retrying in %v",
				attempt, c.MaxRetries, lastErr, backoff)
			select {
			case <-ctx.Done():
				return classify(ctx.Err())
			case <-time.After(backoff):
			}
		}

		err := c.doOnce(ctx, query, variables, out)
		if err == nil {
			return nil
		}
		lastErr = err
		// The parent context being done is not worth retrying against.
		if ctx.Err() != nil {
			return classify(ctx.Err())
		}
	}
	return classify(lastErr)
}

func (c *Client) doOnce(ctx context.Context, query string, variables map[string]any, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.RequestTimeout)
	defer cancel()

	body, err := json.Marshal(graphRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("subgraph status %d: %s", resp.StatusCode, string(respBody))
	}

	var gr graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return fmt.Errorf("subgraph error: %s", gr.Errors[0].Message)
	}
	if gr.Data == nil {
		return fmt.Errorf("subgraph response has no data")
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
