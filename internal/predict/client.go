// Package predict talks to the external conjunction prediction service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/litescript/ls-orbits/internal/logging"
)

const (
	// DefaultEventsURL serves the critical-events feed.
	DefaultEventsURL = "https://orbitxos.onrender.com/predict"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultHorizonMinutes is how far ahead the service screens.
	DefaultHorizonMinutes = 180

	// DefaultStepSeconds is the screening step.
	DefaultStepSeconds = 30

	// DefaultMinInterval spaces consecutive requests.
	DefaultMinInterval = 2 * time.Second
)

var (
	// ErrBadResponse marks a reply that could not be decoded or lacks the
	// element sets the scene needs.
	ErrBadResponse = errors.New("bad prediction response")

	// ErrNoEndpoint is returned when no analysis URL is configured.
	ErrNoEndpoint = errors.New("no prediction endpoint configured")
)

// Client calls the prediction service. Requests are serialized through a
// rate limiter so reload storms cannot hammer the service.
type Client struct {
	http      *http.Client
	url       string
	eventsURL string
	timeout   time.Duration
	limiter   *rate.Limiter
	log       *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAnalyzeURL sets the analysis endpoint.
func WithAnalyzeURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithEventsURL sets the critical-events endpoint.
func WithEventsURL(url string) Option {
	return func(c *Client) {
		c.eventsURL = url
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithMinInterval sets the minimum spacing between requests. Zero disables
// limiting.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets the client logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a prediction client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		eventsURL: DefaultEventsURL,
		timeout:   DefaultTimeout,
		limiter:   rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{
			Timeout: c.timeout,
		}
	}
	if c.log == nil {
		c.log = logging.Discard()
	}

	return c
}

// Request is the analysis input. Element sets are given in two-line form.
type Request struct {
	SatelliteTLE   string `json:"satellite_tle"`
	DebrisTLE      string `json:"debris_tle"`
	HorizonMinutes int    `json:"horizon_minutes"`
	StepSeconds    int    `json:"step_seconds"`
}

// Analyze posts a conjunction screening request.
func (c *Client) Analyze(ctx context.Context, req Request) (Analysis, error) {
	if c.url == "" {
		return Analysis{}, ErrNoEndpoint
	}
	if req.HorizonMinutes <= 0 {
		req.HorizonMinutes = DefaultHorizonMinutes
	}
	if req.StepSeconds <= 0 {
		req.StepSeconds = DefaultStepSeconds
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	raw, err := c.do(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return Analysis{}, err
	}

	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if err := a.validate(); err != nil {
		return Analysis{}, err
	}

	c.log.Info("analysis: min distance %.2f km, risky=%t (%v)", a.Risk.MinDistanceKm, a.Risk.Risky, time.Since(start))
	return a, nil
}

// CriticalEvents fetches the current critical conjunction list.
func (c *Client) CriticalEvents(ctx context.Context) ([]CriticalEvent, error) {
	raw, err := c.do(ctx, http.MethodGet, c.eventsURL, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Events []CriticalEvent `json:"critical_events"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return resp.Events, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ls-orbits/1.0 (Orbit Visualization Tool)")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("prediction service %s returned %d", url, resp.StatusCode)
		return nil, fmt.Errorf("prediction service returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
