package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hejijunhao/sawmill/internal/connector"
	"github.com/hejijunhao/sawmill/internal/engine"
	"github.com/hejijunhao/sawmill/internal/model"
)

// --- mocks ---

// mockConnector returns one document per target, named after the target.
type mockConnector struct {
	docs   map[string]string
	failOn string
}

func (m *mockConnector) Fetch(_ context.Context, _ connector.ConnectorConfig, target string) ([]model.RawLog, error) {
	if target == m.failOn {
		return nil, fmt.Errorf("mock: cannot fetch %q", target)
	}
	return []model.RawLog{{Name: target, Provider: "mock", Data: []byte(m.docs[target])}}, nil
}

type mockOutput struct {
	mu       sync.Mutex
	analyses []model.Analysis
	err      error
	closed   bool
}

func (m *mockOutput) Write(_ context.Context, a model.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses = append(m.analyses, a)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return nil
}

// slowAnalyzer makes earlier documents finish last and tracks peak concurrency.
type slowAnalyzer struct {
	inner  *engine.Engine
	active atomic.Int32
	peak   atomic.Int32
}

func (s *slowAnalyzer) Analyze(lines []string) model.Report {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	// Documents are "doc-<k>" repeated k times; fewer lines sleep longer.
	time.Sleep(time.Duration(20-len(lines)) * 5 * time.Millisecond)
	return s.inner.Analyze(lines)
}

const errLine = "2025-06-03 10:18:00 - INFO - Job FAILED due to timeout"

func TestRunPreservesOrder(t *testing.T) {
	docs := map[string]string{}
	var targets []string
	for k := 1; k <= 8; k++ {
		name := fmt.Sprintf("doc-%d", k)
		docs[name] = strings.Repeat(errLine+"\n", k)
		targets = append(targets, name)
	}

	an := &slowAnalyzer{inner: engine.New()}
	out := &mockOutput{}
	p := New(&mockConnector{docs: docs}, an, out, WithWorkers(3))

	stats, err := p.Run(context.Background(), connector.ConnectorConfig{}, targets)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Documents != 8 || stats.Errors != 36 {
		t.Fatalf("stats = %+v", stats)
	}
	for i, a := range out.analyses {
		if a.Name != targets[i] {
			t.Fatalf("analysis %d = %s, want %s", i, a.Name, targets[i])
		}
		if a.Lines != i+1 || a.Report.Summary.TotalErrors != i+1 {
			t.Fatalf("analysis %s: lines=%d errors=%d", a.Name, a.Lines, a.Report.Summary.TotalErrors)
		}
	}
	if peak := an.peak.Load(); peak > 3 {
		t.Fatalf("peak concurrency %d exceeds worker limit 3", peak)
	}
}

func TestRunFetchError(t *testing.T) {
	out := &mockOutput{}
	p := New(&mockConnector{failOn: "bad"}, engine.New(), out)
	_, err := p.Run(context.Background(), connector.ConnectorConfig{}, []string{"ok", "bad"})
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if len(out.analyses) != 0 {
		t.Fatal("nothing should be written when a fetch fails")
	}
}

func TestRunSkipsUndecodableDocument(t *testing.T) {
	docs := map[string]string{
		"good":    errLine + "\n",
		"corrupt": "\x1f\x8b\x00", // truncated gzip header
	}
	out := &mockOutput{}
	p := New(&mockConnector{docs: docs}, engine.New(), out)

	stats, err := p.Run(context.Background(), connector.ConnectorConfig{}, []string{"corrupt", "good"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Skipped != 1 || stats.Documents != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(out.analyses) != 1 || out.analyses[0].Name != "good" {
		t.Fatalf("analyses = %+v", out.analyses)
	}
}

func TestRunOutputError(t *testing.T) {
	out := &mockOutput{err: errors.New("disk full")}
	p := New(&mockConnector{docs: map[string]string{"a": errLine}}, engine.New(), out)
	if _, err := p.Run(context.Background(), connector.ConnectorConfig{}, []string{"a"}); err == nil {
		t.Fatal("expected output error")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(&mockConnector{docs: map[string]string{"a": errLine}}, engine.New(), &mockOutput{})
	if _, err := p.Run(ctx, connector.ConnectorConfig{}, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClose(t *testing.T) {
	out := &mockOutput{}
	if err := New(&mockConnector{}, engine.New(), out).Close(); err != nil || !out.closed {
		t.Fatalf("Close: err=%v closed=%v", err, out.closed)
	}
}
