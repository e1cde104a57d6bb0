package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/hejijunhao/sawmill/internal/engine/builder"
	"github.com/hejijunhao/sawmill/internal/engine/classifier"
	"github.com/hejijunhao/sawmill/internal/engine/dedup"
	"github.com/hejijunhao/sawmill/internal/engine/dialect"
	"github.com/hejijunhao/sawmill/internal/engine/summary"
	"github.com/hejijunhao/sawmill/internal/ingest"
	"github.com/hejijunhao/sawmill/internal/model"
)

// Engine orchestrates the match → classify → build → group → summarize pass.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	builder *builder.Builder
}

// New creates an Engine with the default dialects. Options extend the
// built-in severity rules.
func New(opts ...classifier.Option) *Engine {
	return NewWith(dialect.New(dialect.Default()...), classifier.New(opts...))
}

// NewWith creates an Engine from explicit components.
func NewWith(m *dialect.Matcher, c *classifier.Classifier) *Engine {
	return &Engine{builder: builder.New(m, c)}
}

// Analyze classifies a whole document given as lines, numbered from 1.
func (e *Engine) Analyze(lines []string) model.Report {
	numbered := make([]model.LogLine, len(lines))
	for i, text := range lines {
		numbered[i] = model.LogLine{Number: i + 1, Text: text}
	}

	res := e.builder.Build(numbered)

	return model.Report{
		Exceptions:        res.Exceptions,
		Errors:            res.Errors,
		Warns:             res.Warns,
		ExceptionsGrouped: dedup.Group(res.Exceptions),
		ErrorsGrouped:     dedup.Group(res.Errors),
		WarnsGrouped:      dedup.Group(res.Warns),
		Summary:           summary.Build(res.Exceptions, res.Errors, res.Warns),
	}
}

// AnalyzeText splits text on newlines and analyzes it.
func (e *Engine) AnalyzeText(text string) model.Report {
	if text == "" {
		return e.Analyze(nil)
	}
	return e.Analyze(strings.Split(text, "\n"))
}

// AnalyzeReader decodes r (plain or gzip) and analyzes its lines.
func (e *Engine) AnalyzeReader(r io.Reader) (model.Report, error) {
	lines, err := ingest.Lines(r)
	if err != nil {
		return model.Report{}, fmt.Errorf("engine: %w", err)
	}
	return e.Analyze(lines), nil
}
