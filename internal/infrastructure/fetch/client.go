// Package fetch renders restaurant pages over plain HTTP and downloads the
// images they reference.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/macrolens/menulens/internal/domain"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultUserAgent     = "MenuLens/1.0 (+https://github.com/macrolens/menulens)"
	defaultRate          = 2.0 // requests per second across all hosts
	defaultBurst         = 4
	defaultAttempts      = 3
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxPageBytes  = 5 << 20
	defaultMaxImageBytes = 10 << 20
	botWallTextLimit     = 2000 // bot walls are short pages
)

// Phrases that identify an anti-bot interstitial instead of real content
var botWallMarkers = []string{
	"captcha",
	"are you a robot",
	"are you human",
	"access denied",
	"verify you are human",
	"unusual traffic",
	"checking your browser",
}

var errBodyTooLarge = errors.New("response body too large")

// Config controls the HTTP client
type Config struct {
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	MaxAttempts       uint
	RetryDelay        time.Duration
	MaxPageBytes      int64
	MaxImageBytes     int64
}

// Client implements domain.ContentAccessor and domain.ImageFetcher. It is
// safe for concurrent use; all requests share one politeness limiter.
type Client struct {
	httpClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a client, filling zero config values with defaults
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxPageBytes <= 0 {
		cfg.MaxPageBytes = defaultMaxPageBytes
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:     logger.Named("fetch"),
	}
}

// Render downloads rawURL and extracts its visible text and images
func (c *Client) Render(ctx context.Context, rawURL string) (*domain.PageContent, error) {
	resp, err := c.get(ctx, rawURL, c.cfg.MaxPageBytes)
	if err != nil {
		return nil, err
	}
	if !isHTML(resp.contentType) {
		return nil, fmt.Errorf("%w: %s: unsupported content type %q", domain.ErrContentUnavailable, rawURL, resp.contentType)
	}

	doc := ParseHTML(resp.finalURL, resp.body)
	if isBotWall(doc) {
		c.logger.Warn("bot protection page", zap.String("url", rawURL), zap.String("title", doc.Title))
		return nil, fmt.Errorf("%w: %s: blocked by bot protection", domain.ErrContentUnavailable, rawURL)
	}

	c.logger.Debug("rendered page",
		zap.String("url", rawURL),
		zap.Int("bytes", len(resp.body)),
		zap.Int("images", len(doc.Images)))

	images := doc.Images
	if images == nil {
		images = []domain.ImageRef{}
	}
	return &domain.PageContent{
		URL:    rawURL,
		HTML:   string(resp.body),
		Text:   doc.Text,
		Images: images,
	}, nil
}

// FetchImage downloads rawURL and decodes its format and dimensions
func (c *Client) FetchImage(ctx context.Context, rawURL string) (*domain.Image, error) {
	resp, err := c.get(ctx, rawURL, c.cfg.MaxImageBytes)
	if err != nil {
		return nil, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(resp.body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode image: %v", domain.ErrContentUnavailable, rawURL, err)
	}

	return &domain.Image{
		URL:    rawURL,
		Data:   resp.body,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

type response struct {
	body        []byte
	contentType string
	finalURL    *url.URL
}

// statusError is a non-200 response
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// permanentError stops the retry loop
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// get performs a rate-limited GET, retrying network failures and 5xx
// responses. Every failure wraps domain.ErrContentUnavailable.
func (c *Client) get(ctx context.Context, rawURL string, limit int64) (*response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", domain.ErrContentUnavailable, rawURL)
	}

	var out *response
	err = retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return &permanentError{err: fmt.Errorf("rate limiter: %w", err)}
			}
			resp, err := c.doRequest(ctx, u.String(), limit)
			if err != nil {
				return err
			}
			out = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying request",
				zap.String("url", rawURL),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrContentUnavailable, rawURL, err)
	}
	return out, nil
}

// doRequest executes one GET with proper headers and reads at most limit bytes
func (c *Client) doRequest(ctx context.Context, reqURL string, limit int64) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,image/*;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, &permanentError{err: fmt.Errorf("%w: over %d bytes", errBodyTooLarge, limit)}
	}

	return &response{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
		finalURL:    resp.Request.URL,
	}, nil
}

func retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *statusError
	if errors.As(err, &status) {
		return status.code >= 500
	}
	return true
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.HasPrefix(ct, "text/")
}

func isBotWall(doc Document) bool {
	title := strings.ToLower(doc.Title)
	for _, marker := range botWallMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	if len(doc.Text) > botWallTextLimit {
		return false
	}
	text := strings.ToLower(doc.Text)
	for _, marker := range botWallMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
