package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/sawmill/internal/engine/compactor"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
)

const (
	defaultBatchSize = 10
	defaultTimeout   = 10 * time.Second
	maxAttempts      = 4

	// IdempotencyHeader carries the batch ID; it is identical on every retry
	// of the same batch.
	IdempotencyHeader = "Idempotency-Key"
)

// Batch is the JSON body of one POST.
type Batch struct {
	ID        string           `json:"batch_id"`
	SentAt    time.Time        `json:"sent_at"`
	Totals    model.Summary    `json:"totals"`
	Documents []model.Analysis `json:"documents"`
}

func newBatch(docs []model.Analysis) Batch {
	b := Batch{
		ID:        uuid.NewString(),
		SentAt:    time.Now().UTC(),
		Totals:    model.Summary{BySource: map[string]int{}},
		Documents: docs,
	}
	for _, d := range docs {
		s := d.Report.Summary
		b.Totals.TotalExceptions += s.TotalExceptions
		b.Totals.TotalErrors += s.TotalErrors
		b.Totals.TotalWarns += s.TotalWarns
		for src, n := range s.BySource {
			b.Totals.BySource[src] += n
		}
	}
	return b
}

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithBatchSize sets how many analyses go into one POST. Default: 10.
func WithBatchSize(n int) Option {
	return func(o *Output) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

func withBackoff(f func(attempt int) time.Duration) Option {
	return func(o *Output) { o.backoff = f }
}

// Output delivers analyses to an HTTP endpoint in batches. A batch is posted
// once it holds batchSize analyses, and the remainder on Close. 5xx answers
// and transport errors are retried.
type Output struct {
	client    *http.Client
	url       string
	headers   map[string]string
	batchSize int
	verbosity compactor.Verbosity
	backoff   func(attempt int) time.Duration

	mu      sync.Mutex
	pending []model.Analysis
}

// New creates a webhook output posting to url.
func New(url string, verbosity compactor.Verbosity, opts ...Option) *Output {
	o := &Output{
		client:    &http.Client{Timeout: defaultTimeout},
		url:       url,
		batchSize: defaultBatchSize,
		verbosity: verbosity,
		backoff:   func(attempt int) time.Duration { return time.Duration(attempt) * 500 * time.Millisecond },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Output) Write(ctx context.Context, a model.Analysis) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending = append(o.pending, output.FormatAnalysis(a, o.verbosity))
	if len(o.pending) < o.batchSize {
		return nil
	}
	return o.sendPending(ctx)
}

// Close posts whatever is still pending.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sendPending(context.Background())
}

// sendPending requires o.mu.
func (o *Output) sendPending(ctx context.Context) error {
	if len(o.pending) == 0 {
		return nil
	}
	batch := newBatch(o.pending)
	o.pending = nil

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	if err := o.post(ctx, batch.ID, body); err != nil {
		return fmt.Errorf("webhook: batch %s: %w", batch.ID, err)
	}
	slog.Debug("webhook batch delivered", "batch_id", batch.ID, "documents", len(batch.Documents))
	return nil
}

func (o *Output) post(ctx context.Context, id string, body []byte) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(o.backoff(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		var retry bool
		retry, err = o.attempt(ctx, id, body)
		if err == nil || !retry {
			return err
		}
		slog.Warn("webhook delivery failed, retrying", "batch_id", id, "attempt", attempt+1, "error", err)
	}
	return err
}

// attempt performs one POST and reports whether a failure may be retried.
func (o *Output) attempt(ctx context.Context, id string, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, id)
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("HTTP %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}
