package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	primaryArchiveDomain  = "nsearchives.nseindia.com"
	fallbackArchiveDomain = "archives.nseindia.com"

	DefaultBaseURL   = "https://" + primaryArchiveDomain
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultReferer   = "https://www.nseindia.com/all-reports-derivatives"
)

// Client interface for testability
type Client interface {
	DownloadPriceList(ctx context.Context, date time.Time, dest io.Writer) (int64, error)
	FetchMarketLots(ctx context.Context) ([]byte, error)
}

type Options struct {
	BaseURL       string
	UserAgent     string
	Referer       string
	RatePerSecond int
	Timeout       time.Duration
	RetryDelay    time.Duration
	RetryCount    int
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	referer    string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Referer == "" {
		opts.Referer = DefaultReferer
	}
	if opts.RatePerSecond < 1 {
		opts.RatePerSecond = 1
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		referer:    opts.Referer,
		limiter:    rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RatePerSecond*2),
		retryCount: opts.RetryCount,
		retryDelay: opts.RetryDelay,
		logger:     logger,
	}
}

// DownloadPriceList fetches the zipped derivatives price list for date and
// writes it to dest unchanged.
func (c *HTTPClient) DownloadPriceList(ctx context.Context, date time.Time, dest io.Writer) (int64, error) {
	body, err := c.getWithFallback(ctx, c.baseURL+PriceListPath(date))
	if err != nil {
		return 0, err
	}

	n, err := dest.Write(body)
	return int64(n), err
}

// FetchMarketLots fetches the F&O market lot file.
func (c *HTTPClient) FetchMarketLots(ctx context.Context) ([]byte, error) {
	return c.getWithFallback(ctx, c.baseURL+MarketLotsPath)
}

func (c *HTTPClient) getWithFallback(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url)
	if err == nil || err == ErrNotFound {
		return body, err
	}

	// Check if fallback is applicable
	if !strings.Contains(url, primaryArchiveDomain) {
		return nil, err
	}

	fallbackURL := strings.Replace(url, primaryArchiveDomain, fallbackArchiveDomain, 1)
	c.logger.Info("retrying with fallback domain",
		zap.String("original", url),
		zap.String("fallback", fallbackURL),
		zap.Error(err))

	return c.get(ctx, fallbackURL)
}

func (c *HTTPClient) get(ctx context.Context, url string) ([]byte, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	c.logger.Debug("requesting", zap.String("url", url))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Referer", c.referer)
		req.Header.Set("Accept", "*/*")
		req.Header.Set("Accept-Language", "en-GB,en-US;q=0.8,en;q=0.6")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, ErrForbidden
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = ErrRateLimited
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
