package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atomforge/atomforge/core"
)

const maxDocumentBytes = 4 << 20 // 4 MiB

// Acquirer fetches raw source content. URLs are fetched over HTTP with
// bounded retries; anything else is treated as a local file path first and
// raw text second.
type Acquirer struct {
	client      *http.Client
	maxAttempts int
	sleep       func(context.Context, time.Duration) error
	logger      *slog.Logger
}

// AcquirerOption configures an Acquirer.
type AcquirerOption func(*Acquirer)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) AcquirerOption {
	return func(a *Acquirer) {
		if client != nil {
			a.client = client
		}
	}
}

// WithAcquireSleep overrides the retry sleep, letting tests skip real delays.
func WithAcquireSleep(sleep func(context.Context, time.Duration) error) AcquirerOption {
	return func(a *Acquirer) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

// NewAcquirer creates an Acquirer with a 30s per-request timeout.
func NewAcquirer(opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		client:      &http.Client{Timeout: 30 * time.Second},
		maxAttempts: 3,
		sleep:       sleepCtx,
		logger:      slog.Default().With("component", "acquirer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire fetches the raw content behind a queue entry source. Network and
// server failures are retried with exponential backoff; exhaustion returns
// ErrTransient for terminal session failure.
func (a *Acquirer) Acquire(ctx context.Context, source string) (string, error) {
	if strings.Contains(source, "://") {
		return a.fetch(ctx, source)
	}

	// Gap-derived entries carry no document; a short brief built from the
	// topic key is the content handed to the rest of the pipeline.
	if topic, ok := strings.CutPrefix(source, "gap:"); ok {
		return fmt.Sprintf("Coverage request for the topic %s. "+
			"Queries about this subject found no stored knowledge and the "+
			"knowledge base needs generated atoms for it.", topic), nil
	}

	if data, err := os.ReadFile(source); err == nil {
		return string(data), nil
	}
	return source, nil
}

func (a *Acquirer) fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := a.sleep(ctx, core.Backoff(attempt-1)); err != nil {
				return "", fmt.Errorf("%w: %w", ErrTransient, err)
			}
		}

		body, err := a.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		a.logger.Warn("acquisition attempt failed", "url", url, "attempt", attempt, "err", err)

		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", ErrTransient, lastErr)
}

func (a *Acquirer) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "atomforge/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
