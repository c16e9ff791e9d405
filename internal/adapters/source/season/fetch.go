package season

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/pkg/logger"
	"github.com/okian/miya/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "miya/1.0 (+season-fetch)"
)

// Fetcher downloads season summary CSVs from a printf URL template taking
// the year.
type Fetcher struct {
	urlTemplate string
	client      *http.Client
	limiter     *rate.Limiter
	timeout     time.Duration
	logger      logger.Logger
}

// NewFetcher creates a Fetcher for urlTemplate, e.g.
// "http://barttorvik.com/%d_team_results.csv".
func NewFetcher(urlTemplate string, opts ...Option) *Fetcher {
	f := &Fetcher{
		urlTemplate: urlTemplate,
		client:      &http.Client{},
		limiter:     rate.NewLimiter(rate.Limit(1), 1),
		timeout:     defaultTimeout,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the download location for year.
func (f *Fetcher) URL(year int) string { return fmt.Sprintf(f.urlTemplate, year) }

// Download returns the decoded CSV body for year.
func (f *Fetcher) Download(ctx context.Context, year int) (body []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSeasonFetch(float64(time.Since(start).Milliseconds()), err)
		if err != nil {
			metrics.RecordErrorByComponent("season", "fetch")
		}
	}()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrFetch, err)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url := f.URL(year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	f.logger.Info(ctx, "fetching season summary", logger.String("url", url), logger.Int("year", year))
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}

	reader, err := decode(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = reader.Close() }()

	body, err = io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	return body, nil
}

// decode wraps body according to its Content-Encoding.
func decode(encoding string, body io.Reader) (io.ReadCloser, error) {
	switch encoding {
	case "gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return zr, nil
	case "deflate":
		return flate.NewReader(body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	default:
		return io.NopCloser(body), nil
	}
}

// Fetch downloads and parses the season summary for year.
func (f *Fetcher) Fetch(ctx context.Context, year int) ([]model.SeasonSummary, error) {
	body, err := f.Download(ctx, year)
	if err != nil {
		return nil, err
	}
	rows, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	f.logger.Info(ctx, "season summary parsed", logger.Int("teams", len(rows)))
	return rows, nil
}

// Save downloads the season CSV for year, checks that it parses, and writes
// the raw bytes to path.
func (f *Fetcher) Save(ctx context.Context, year int, path string) (int, error) {
	body, err := f.Download(ctx, year)
	if err != nil {
		return 0, err
	}
	rows, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil { //nolint:gosec // data file, world-readable
		return 0, fmt.Errorf("write season file: %w", err)
	}
	f.logger.Info(ctx, "season summary saved", logger.String("path", path), logger.Int("teams", len(rows)))
	return len(rows), nil
}
