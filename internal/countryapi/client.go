package countryapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vibe-gaming/countries/internal/config"
	"github.com/vibe-gaming/countries/pkg/logger"
)

const (
	DefaultURL          = "https://storage.googleapis.com/dcr-django-test/countries.json"
	defaultTimeout      = 10 * time.Second
	defaultMaxAttempts  = 3
	maxResponseBodySize = 32 << 20
)

// RawCountry is one undecoded record of the listing. Numbers keep their
// textual form so populations never lose precision.
type RawCountry map[string]interface{}

// Client fetches the country listing. It performs one request at a time.
type Client struct {
	url             string
	httpClient      *http.Client
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
}

func NewClient(cfg config.Import) *Client {
	c := &Client{
		url:             cfg.URL,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		maxAttempts:     cfg.MaxAttempts,
		initialInterval: cfg.InitialBackoff,
		maxInterval:     cfg.MaxBackoff,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = defaultTimeout
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	if c.initialInterval <= 0 {
		c.initialInterval = time.Second
	}
	if c.maxInterval < c.initialInterval {
		c.maxInterval = c.initialInterval
	}
	return c
}

func (c *Client) URL() string {
	return c.url
}

// Fetch downloads and decodes the listing. When savePath is not empty the
// payload is also written there, indented, for inspection.
func (c *Client) Fetch(ctx context.Context, savePath string) ([]RawCountry, error) {
	logger.Debug("fetching country listing", zap.String("url", c.url))

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		b, err := c.get(ctx)
		if err != nil {
			return err
		}
		body = b
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("country listing request failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
		)
	}

	if err := backoff.RetryNotify(operation, c.backOff(ctx), notify); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		logger.Error("network error while fetching data", zap.Error(err), zap.Int("attempts", attempt))
		return nil, errors.Wrapf(ErrNetwork, "%d attempt(s) to %s: %v", attempt, c.url, err)
	}

	rows, err := Decode(body)
	if err != nil {
		logger.Error("invalid country listing", zap.Error(err))
		return nil, err
	}
	logger.Info("fetched country listing", zap.Int("records", len(rows)))

	if savePath != "" {
		if err := saveResponse(savePath, body); err != nil {
			return nil, err
		}
		logger.Debug("saved api response", zap.String("path", savePath))
	}

	return rows, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initialInterval
	exp.MaxInterval = c.maxInterval
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.maxAttempts-1)), ctx)
}

// get performs a single attempt. Errors that must not be retried are marked permanent.
func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		// timeouts and connection failures are retried
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &StatusError{Code: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(&StatusError{Code: resp.StatusCode})
	}

	return body, nil
}

// Decode validates that payload is a non-empty JSON array of objects.
func Decode(payload []byte) ([]RawCountry, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var rows []RawCountry
	if err := dec.Decode(&rows); err != nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "response is not a valid JSON array: %v", err)
	}
	if rows == nil {
		return nil, errors.Wrap(ErrMalformedResponse, "response is not a valid JSON array")
	}
	if len(rows) == 0 {
		return nil, ErrEmptyResponse
	}
	return rows, nil
}

func saveResponse(path string, body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return errors.Wrap(err, "indent api response")
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "save api response to %s", path)
	}
	return nil
}
