// Package discovery finds a restaurant's own website through a web search
// API when the listing URL yields no menu.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/macrolens/menulens/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Google Custom Search JSON API endpoint
	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

	defaultMaxResults = 5
	defaultTimeout    = 15 * time.Second
	defaultAttempts   = 3
	defaultRate       = 1.0 // requests per second
	defaultBurst      = 5
)

// Config holds the search API credentials and limits
type Config struct {
	APIKey            string
	EngineID          string // "cx"
	BaseURL           string
	MaxResults        int
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxAttempts       int
	MinScore          int
}

// SearchResult is one hit returned by the search API
type SearchResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Items []SearchResult `json:"items"`
}

// Client implements domain.WebsiteDiscovery against a custom search API
type Client struct {
	httpClient  *http.Client
	cfg         Config
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// NewClient creates a new search client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 || cfg.MaxResults > 10 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultAttempts
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		cfg:         cfg,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		backoff:     exponentialBackoff,
		logger:      logger.Named("discovery"),
	}
}

// FindWebsite searches for the restaurant and returns the best-ranked
// result, or "" when nothing clears the score threshold
func (c *Client) FindWebsite(ctx context.Context, name, location string) (string, error) {
	query := BuildQuery(name, location)
	if query == "" {
		return "", nil
	}

	results, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}

	best, score := BestResult(name, results, c.cfg.MinScore)
	c.logger.Debug("discovery ranked results",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.String("best", best),
		zap.Int("score", score))
	return best, nil
}

// Search runs one query, retrying transient failures with exponential
// backoff
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	reqURL, err := c.searchURL(query)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		results, retry, err := c.search(ctx, reqURL)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}

		c.logger.Debug("search attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == c.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrDiscoveryFailed, ctx.Err())
		case <-time.After(c.backoff(attempt)):
		}
	}

	c.logger.Warn("all search retries failed", zap.String("query", query), zap.Error(lastErr))
	return nil, lastErr
}

// search performs one request and reports whether a failure is worth retrying
func (c *Client) search(ctx context.Context, reqURL string) ([]SearchResult, bool, error) {
	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("%w: status %d", domain.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", domain.ErrDiscoveryFailed, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: status %d, body: %s", domain.ErrDiscoveryFailed, resp.StatusCode, truncate(string(body), 512))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("%w: decode response: %v", domain.ErrDiscoveryFailed, err)
	}
	return parsed.Items, false, nil
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "MenuLens/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDiscoveryFailed, err)
	}
	return resp, nil
}

func (c *Client) searchURL(query string) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base url: %v", domain.ErrDiscoveryFailed, err)
	}
	params := url.Values{}
	params.Add("key", c.cfg.APIKey)
	params.Add("cx", c.cfg.EngineID)
	params.Add("q", query)
	params.Add("num", strconv.Itoa(c.cfg.MaxResults))
	base.RawQuery = params.Encode()
	return base.String(), nil
}

// BuildQuery joins the restaurant name and location into a search query
func BuildQuery(name, location string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	query := name
	if location = strings.Join(strings.Fields(location), " "); location != "" {
		query += " " + location
	}
	return query + " restaurant menu"
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
