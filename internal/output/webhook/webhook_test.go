package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hejijunhao/sawmill/internal/engine/compactor"
	"github.com/hejijunhao/sawmill/internal/model"
)

func noWait(int) time.Duration { return 0 }

type receiver struct {
	mu      sync.Mutex
	batches []Batch
	keys    []string
	headers []http.Header
}

func (rc *receiver) handler(status func(call int) int) http.HandlerFunc {
	var calls atomic.Int32
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		rc.mu.Lock()
		rc.keys = append(rc.keys, r.Header.Get(IdempotencyHeader))
		rc.mu.Unlock()
		if code := status(n); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var b Batch
		json.Unmarshal(body, &b)
		rc.mu.Lock()
		rc.batches = append(rc.batches, b)
		rc.headers = append(rc.headers, r.Header.Clone())
		rc.mu.Unlock()
	}
}

func always(code int) func(int) int { return func(int) int { return code } }

func analysis(name string, exceptions, errors int) model.Analysis {
	return model.Analysis{Name: name, Report: model.Report{Summary: model.Summary{
		TotalExceptions: exceptions,
		TotalErrors:     errors,
		BySource:        map[string]int{"weblogic": exceptions, "java": errors},
	}}}
}

func TestBatchAtBatchSize(t *testing.T) {
	rc := &receiver{}
	srv := httptest.NewServer(rc.handler(always(http.StatusOK)))
	defer srv.Close()

	out := New(srv.URL, compactor.Full, WithBatchSize(2))
	for _, name := range []string{"a.log", "b.log", "c.log"} {
		if err := out.Write(context.Background(), analysis(name, 1, 2)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	rc.mu.Lock()
	if len(rc.batches) != 1 || len(rc.batches[0].Documents) != 2 {
		t.Fatalf("after 3 writes: batches = %+v", rc.batches)
	}
	first := rc.batches[0]
	rc.mu.Unlock()

	if first.Totals.TotalExceptions != 2 || first.Totals.TotalErrors != 4 || first.Totals.BySource["java"] != 4 {
		t.Errorf("totals = %+v", first.Totals)
	}
	if first.ID == "" || first.SentAt.IsZero() {
		t.Errorf("batch missing id or timestamp: %+v", first)
	}

	if err := out.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if len(rc.batches) != 2 || len(rc.batches[1].Documents) != 1 || rc.batches[1].Documents[0].Name != "c.log" {
		t.Fatalf("after Close: batches = %+v", rc.batches)
	}
	if rc.batches[0].ID == rc.batches[1].ID {
		t.Error("two batches share an id")
	}
}

func TestHeaders(t *testing.T) {
	rc := &receiver{}
	srv := httptest.NewServer(rc.handler(always(http.StatusOK)))
	defer srv.Close()

	out := New(srv.URL, compactor.Full, WithHeaders(map[string]string{"X-Token": "abc"}))
	out.Write(context.Background(), analysis("a.log", 0, 0))
	out.Close()

	if len(rc.headers) != 1 {
		t.Fatalf("posts = %d, want 1", len(rc.headers))
	}
	h := rc.headers[0]
	if h.Get("X-Token") != "abc" || h.Get("Content-Type") != "application/json" {
		t.Errorf("headers = %v", h)
	}
	if h.Get(IdempotencyHeader) != rc.batches[0].ID {
		t.Errorf("%s = %q, want batch id %q", IdempotencyHeader, h.Get(IdempotencyHeader), rc.batches[0].ID)
	}
}

func TestRetryOn5xxKeepsKey(t *testing.T) {
	rc := &receiver{}
	srv := httptest.NewServer(rc.handler(func(call int) int {
		if call < 3 {
			return http.StatusBadGateway
		}
		return http.StatusOK
	}))
	defer srv.Close()

	out := New(srv.URL, compactor.Full, withBackoff(noWait))
	out.Write(context.Background(), analysis("a.log", 0, 0))
	if err := out.Close(); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(rc.batches) != 1 || len(rc.keys) != 3 {
		t.Fatalf("batches = %d, attempts = %d", len(rc.batches), len(rc.keys))
	}
	for _, k := range rc.keys {
		if k != rc.keys[0] {
			t.Fatalf("idempotency key changed across retries: %v", rc.keys)
		}
	}
}

func TestGiveUpAfterMaxAttempts(t *testing.T) {
	rc := &receiver{}
	srv := httptest.NewServer(rc.handler(always(http.StatusServiceUnavailable)))
	defer srv.Close()

	out := New(srv.URL, compactor.Full, withBackoff(noWait))
	out.Write(context.Background(), analysis("a.log", 0, 0))
	if err := out.Close(); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if len(rc.keys) != maxAttempts {
		t.Fatalf("attempts = %d, want %d", len(rc.keys), maxAttempts)
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	rc := &receiver{}
	srv := httptest.NewServer(rc.handler(always(http.StatusBadRequest)))
	defer srv.Close()

	out := New(srv.URL, compactor.Full, withBackoff(noWait))
	out.Write(context.Background(), analysis("a.log", 0, 0))
	if err := out.Close(); err == nil {
		t.Fatal("expected error for 400")
	}
	if len(rc.keys) != 1 {
		t.Fatalf("attempts = %d, want 1", len(rc.keys))
	}
}

func TestMinimalVerbosityApplied(t *testing.T) {
	rc := &receiver{}
	srv := httptest.NewServer(rc.handler(always(http.StatusOK)))
	defer srv.Close()

	a := analysis("a.log", 1, 0)
	a.Report.Exceptions = []model.Entry{{Type: "java.lang.IllegalStateException", StackTrace: []string{}}}

	out := New(srv.URL, compactor.Minimal)
	out.Write(context.Background(), a)
	out.Close()

	if len(rc.batches) != 1 || len(rc.batches[0].Documents[0].Report.Exceptions) != 0 {
		t.Fatalf("minimal batch kept flat entries: %+v", rc.batches)
	}
}

func TestCloseEmptyIsNoop(t *testing.T) {
	if err := New("http://127.0.0.1:1", compactor.Full).Close(); err != nil {
		t.Fatalf("Close on empty output: %v", err)
	}
}
