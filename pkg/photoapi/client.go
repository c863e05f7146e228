package photoapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/matzehuels/waterfall/pkg/buildinfo"
	"github.com/matzehuels/waterfall/pkg/httputil"
	"github.com/matzehuels/waterfall/pkg/observability"
)

const (
	// DefaultTimeout bounds a single-photo or metadata request.
	DefaultTimeout = 60 * time.Second

	// DefaultBulkTimeout bounds a batch thumbnail archive request.
	DefaultBulkTimeout = 120 * time.Second

	maxErrorBody = 512
)

var (
	// ErrNotFound is returned when the service answers 404.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures and unexpected statuses.
	ErrNetwork = errors.New("network error")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("photo service unavailable")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

// Options configures a Client. Zero values take defaults.
type Options struct {
	BaseURL     string
	Token       string        // sent as a bearer token when set
	Timeout     time.Duration // per request; default 60s
	BulkTimeout time.Duration // batch archive request; default 120s
	RateLimit   float64       // requests per second; 0 disables limiting
	Burst       int
	Retry       httputil.Policy
	Meta        *httputil.Cache // caches photo metadata; nil disables
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// Client talks to the photo service. It is safe for concurrent use.
type Client struct {
	base        *url.URL
	http        *http.Client
	headers     map[string]string
	timeout     time.Duration
	bulkTimeout time.Duration
	retry       httputil.Policy
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[*response]
	info        *httputil.Cache // photo metadata, keyed by ID
	logger      *log.Logger
}

type response struct {
	body        []byte
	contentType string
}

// New creates a Client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("photo service base URL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q: scheme must be http or https", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	headers := map[string]string{
		"Accept":     "application/json, application/zip, application/octet-stream, image/*",
		"User-Agent": buildinfo.UserAgent(),
	}
	c := &Client{
		base:        base,
		http:        opts.HTTPClient,
		headers:     headers,
		timeout:     opts.Timeout,
		bulkTimeout: opts.BulkTimeout,
		retry:       opts.Retry,
		logger:      opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.bulkTimeout <= 0 {
		c.bulkTimeout = DefaultBulkTimeout
	}
	if c.retry.Attempts == 0 {
		c.retry = httputil.DefaultPolicy
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if opts.Meta != nil {
		c.info = opts.Meta.Namespace("info:")
	}
	if opts.Token != "" {
		c.headers["Authorization"] = "Bearer " + opts.Token
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.Burst, 1))
	}
	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "photo-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !httputil.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c, nil
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// get fetches path under timeout, retrying transient failures.
func (c *Client) get(ctx context.Context, path string, query url.Values, timeout time.Duration) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.endpoint(path, query)
	var resp *response
	err := c.retry.Do(ctx, func(attempt int) error {
		if attempt > 0 {
			c.logger.Debug("retrying request", "path", path, "attempt", attempt+1)
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		r, err := c.breaker.Execute(func() (*response, error) {
			return c.doRequest(ctx, target)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		resp = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, target string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	return &response{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	case code == http.StatusTooManyRequests || code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if s := strings.TrimSpace(string(msg)); s != "" {
			return fmt.Errorf("%w: status %d: %s", ErrNetwork, code, s)
		}
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
