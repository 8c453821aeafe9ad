package tle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultCatalogURL is the public active-satellite element set feed.
	DefaultCatalogURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second
)

// ErrUnavailable wraps every failure to obtain catalog text.
var ErrUnavailable = errors.New("catalog unavailable")

// Fetcher retrieves element set text from an HTTP feed.
type Fetcher struct {
	client     *http.Client
	url        string
	timeout    time.Duration
	maxRecords int
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithURL sets a custom catalog URL.
func WithURL(url string) FetcherOption {
	return func(f *Fetcher) {
		f.url = url
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxRecords caps the parsed catalog to the last n records.
func WithMaxRecords(n int) FetcherOption {
	return func(f *Fetcher) {
		f.maxRecords = n
	}
}

// NewFetcher creates a new catalog fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		url:        DefaultCatalogURL,
		timeout:    DefaultTimeout,
		maxRecords: DefaultMaxRecords,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}

	return f
}

// FetchResult contains the result of a fetch operation.
type FetchResult struct {
	Records   []Record
	Dropped   int // records that failed validation
	RawBytes  []byte
	FetchedAt time.Time
	Duration  time.Duration
	Error     error
}

// Fetch retrieves and parses the catalog feed. Records that fail validation
// are counted in Dropped and omitted.
func (f *Fetcher) Fetch(ctx context.Context) FetchResult {
	start := time.Now()
	result := FetchResult{
		FetchedAt: start,
	}

	raw, err := f.fetchRaw(ctx)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return result
	}
	result.RawBytes = raw

	result.Records, result.Dropped = SplitValid(Parse(string(raw), f.maxRecords))
	return result
}

func (f *Fetcher) fetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "ls-orbits/1.0 (Orbit Visualization Tool)")
	req.Header.Set("Accept", "text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// URL returns the configured feed URL.
func (f *Fetcher) URL() string {
	return f.url
}

// LoadFile reads and parses a catalog from disk.
func LoadFile(path string, max int) ([]Record, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	records, dropped := SplitValid(Parse(string(raw), max))
	return records, dropped, nil
}

// Load resolves source as either an http(s) URL or a file path.
func Load(ctx context.Context, source string, max int) FetchResult {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewFetcher(WithURL(source), WithMaxRecords(max)).Fetch(ctx)
	}

	start := time.Now()
	records, dropped, err := LoadFile(source, max)
	return FetchResult{
		Records:   records,
		Dropped:   dropped,
		FetchedAt: start,
		Duration:  time.Since(start),
		Error:     err,
	}
}
