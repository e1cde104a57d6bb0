package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hejijunhao/sawmill/internal/connector"
	"github.com/hejijunhao/sawmill/internal/ingest"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
)

const defaultWorkers = 4

// Analyzer turns a document's lines into a report. *engine.Engine satisfies it.
type Analyzer interface {
	Analyze(lines []string) model.Report
}

// Stats summarizes one Run.
type Stats struct {
	Documents  int
	Skipped    int
	Exceptions int
	Errors     int
	Warns      int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds how many documents are analyzed at once. Default: 4.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Pipeline connects a connector, analyzer, and output for batch runs.
type Pipeline struct {
	connector connector.Connector
	analyzer  Analyzer
	output    output.Output
	workers   int
}

// New creates a Pipeline from the given components.
func New(conn connector.Connector, an Analyzer, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: conn,
		analyzer:  an,
		output:    out,
		workers:   defaultWorkers,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type result struct {
	analysis model.Analysis
	err      error
}

// Run fetches every target, analyzes the documents concurrently and writes
// the analyses to the output in fetch order. A document that cannot be
// decoded is logged and skipped; fetch and output errors stop the run.
func (p *Pipeline) Run(ctx context.Context, cfg connector.ConnectorConfig, targets []string) (Stats, error) {
	var raws []model.RawLog
	for _, target := range targets {
		docs, err := p.connector.Fetch(ctx, cfg, target)
		if err != nil {
			return Stats{}, fmt.Errorf("pipeline fetch: %w", err)
		}
		raws = append(raws, docs...)
	}

	results := make([]result, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.analyze(raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("pipeline analyze: %w", err)
	}

	var stats Stats
	for i, res := range results {
		if res.err != nil {
			slog.Warn("skipping document", "name", raws[i].Name, "error", res.err)
			stats.Skipped++
			continue
		}
		if err := p.output.Write(ctx, res.analysis); err != nil {
			return stats, fmt.Errorf("pipeline output: %w", err)
		}
		s := res.analysis.Report.Summary
		stats.Documents++
		stats.Exceptions += s.TotalExceptions
		stats.Errors += s.TotalErrors
		stats.Warns += s.TotalWarns
	}
	return stats, nil
}

func (p *Pipeline) analyze(raw model.RawLog) result {
	lines, err := ingest.Lines(bytes.NewReader(raw.Data))
	if err != nil {
		return result{err: err}
	}
	return result{analysis: model.Analysis{
		Name:     raw.Name,
		Provider: raw.Provider,
		Lines:    len(lines),
		Report:   p.analyzer.Analyze(lines),
	}}
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
