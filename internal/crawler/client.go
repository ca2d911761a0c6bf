package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/time/rate"
)

// Defaults for the API client.
const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the first backoff delay.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultRetryMaxDelay caps the exponential backoff.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultMaxBodySize limits how much of a response is read.
	DefaultMaxBodySize = 20 * 1024 * 1024
)

// Client reads the forum JSON API: category listing pages and topic documents.
//
// Design decision: One Client is shared by every topic worker. Its rate
// limiter is the single request budget for the whole crawl, so raising the
// worker count never raises the request rate beyond the configured limit.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	categoryPath    string
	categoryID      int64
	limiter         *rate.Limiter
	retryPolicy     retrypolicy.RetryPolicy[[]byte]
	maxBodySize     int64
	maxListingPages int
	logger          *slog.Logger

	maxRetries     int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCategory sets the category listed by FetchAllTopics, for example
// ("courses/tds-kb", 34).
func WithCategory(path string, id int64) Option {
	return func(c *Client) {
		c.categoryPath = strings.Trim(path, "/")
		c.categoryID = id
	}
}

// WithRateLimit limits requests per second across all callers.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry sets the number of retries for transient failures and the
// exponential backoff bounds.
func WithRetry(maxRetries int, baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			c.retryBaseDelay = baseDelay
		}
		if maxDelay > 0 {
			c.retryMaxDelay = maxDelay
		}
	}
}

// WithMaxListingPages stops pagination after n pages. Zero means no limit.
func WithMaxListingPages(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxListingPages = n
		}
	}
}

// WithMaxBodySize sets the maximum number of response bytes read.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the forum at baseURL. httpClient must
// already carry the session cookies.
func NewClient(httpClient *http.Client, baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(u.String(), "/"),
		limiter:        rate.NewLimiter(rate.Inf, 0),
		maxBodySize:    DefaultMaxBodySize,
		maxRetries:     DefaultMaxRetries,
		retryBaseDelay: DefaultRetryBaseDelay,
		retryMaxDelay:  DefaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.retryMaxDelay < c.retryBaseDelay {
		c.retryMaxDelay = c.retryBaseDelay
	}

	c.retryPolicy = retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool {
			var fetchErr *FetchError
			return errors.As(err, &fetchErr) && fetchErr.Temporary()
		}).
		WithBackoff(c.retryBaseDelay, c.retryMaxDelay).
		WithMaxRetries(c.maxRetries).
		WithJitterFactor(0.1).
		Build()

	return c, nil
}

// BaseURL returns the forum origin without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CategoryID returns the id of the listed category.
func (c *Client) CategoryID() int64 {
	return c.categoryID
}

// CategoryURL returns the category listing URL without a page parameter.
func (c *Client) CategoryURL() string {
	return fmt.Sprintf("%s/c/%s/%d.json", c.baseURL, c.categoryPath, c.categoryID)
}

// ListingPageURL returns the URL of one listing page.
func (c *Client) ListingPageURL(page int) string {
	return fmt.Sprintf("%s?page=%d", c.CategoryURL(), page)
}

// TopicURL returns the URL of a topic document.
func (c *Client) TopicURL(id int64, slug string) string {
	return fmt.Sprintf("%s/t/%s/%d.json", c.baseURL, url.PathEscape(slug), id)
}

// getJSON fetches a URL, retrying transient failures with backoff.
// The returned error is a *FetchError or a context error.
func (c *Client) getJSON(ctx context.Context, target string) ([]byte, error) {
	attempts := 0
	var lastErr error

	body, err := failsafe.With(c.retryPolicy).WithContext(ctx).Get(func() ([]byte, error) {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			return nil, err
		}

		b, err := c.fetchOnce(ctx, target)
		lastErr = err
		if err != nil {
			c.logger.Debug("request failed",
				"url", target,
				"attempt", attempts,
				"error", err,
			)
		}
		return b, err
	})
	if err == nil {
		return body, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if lastErr != nil {
		err = lastErr
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		fetchErr.Attempts = attempts
		return nil, fetchErr
	}
	return nil, &FetchError{URL: target, Attempts: attempts, Err: err}
}

// fetchOnce performs a single GET.
func (c *Client) fetchOnce(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // drain for connection reuse
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{URL: target, Err: err}
	}
	return body, nil
}
