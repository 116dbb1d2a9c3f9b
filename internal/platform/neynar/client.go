package neynar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"farcaster-claim-backend/internal/common/errors"
)

// Cast is a single Farcaster post as returned by the feed API. Timestamp
// stays a string here; parsing is the evaluator's concern.
type Cast struct {
	Hash      string `json:"hash"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type castsResponse struct {
	Casts []Cast `json:"casts"`
}

// Client talks to the social feed. Requests are rate limited so a burst of
// claim verifications cannot exhaust the API quota.
type Client struct {
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string, timeout time.Duration, retryMax int, rps float64) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	limit := rate.Limit(rps)
	burst := 1
	if rps <= 0 {
		limit = rate.Inf
		burst = 0
	}

	return &Client{
		httpClient: retryClient,
		limiter:    rate.NewLimiter(limit, burst),
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// UserCasts fetches up to limit most recent casts authored by fid, replies
// included. Order is whatever the feed returns, typically reverse
// chronological.
func (c *Client) UserCasts(ctx context.Context, fid int64, limit int) ([]Cast, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewFeedUnavailableError(err)
	}

	url := fmt.Sprintf("%s/v2/farcaster/feed/user/casts?fid=%d&limit=%d&include_replies=true", c.baseURL, fid, limit)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFeedUnavailableError(err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFeedUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewFeedUnavailableError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewFeedUnavailableError(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body))
	}

	var parsed castsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewFeedUnavailableError(err)
	}

	return parsed.Casts, nil
}
