package sawmill

import (
	"fmt"
	"io"

	"github.com/hejijunhao/sawmill/internal/engine"
	"github.com/hejijunhao/sawmill/internal/engine/classifier"
	"github.com/hejijunhao/sawmill/internal/engine/compactor"
	"github.com/hejijunhao/sawmill/internal/export"
)

// Sawmill analyzes log documents. Safe for concurrent use.
type Sawmill struct {
	engine    *engine.Engine
	compactor *compactor.Compactor
}

// New creates a Sawmill. Creation is cheap, but one instance can serve any
// number of goroutines. The only error is an unknown verbosity.
func New(opts ...Option) (*Sawmill, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	v, err := compactor.ParseVerbosity(o.verbosity)
	if err != nil {
		return nil, fmt.Errorf("sawmill: %w", err)
	}

	var copts []classifier.Option
	if len(o.errorLevels) > 0 {
		copts = append(copts, classifier.WithErrorLevels(o.errorLevels...))
	}
	if len(o.errorKeywords) > 0 {
		copts = append(copts, classifier.WithErrorKeywords(o.errorKeywords...))
	}

	return &Sawmill{
		engine:    engine.New(copts...),
		compactor: compactor.New(v),
	}, nil
}

// Analyze classifies a document given as lines. Line numbers in the report
// are 1-based indexes into lines.
func (s *Sawmill) Analyze(lines []string) Report {
	return s.compactor.Compact(s.engine.Analyze(lines))
}

// AnalyzeText splits text on "\n" and analyzes it.
func (s *Sawmill) AnalyzeText(text string) Report {
	return s.compactor.Compact(s.engine.AnalyzeText(text))
}

// AnalyzeReader reads a plain or gzip-compressed document from r. Invalid
// UTF-8 is dropped; only read and decompression failures return an error.
func (s *Sawmill) AnalyzeReader(r io.Reader) (Report, error) {
	rep, err := s.engine.AnalyzeReader(r)
	if err != nil {
		return Report{}, fmt.Errorf("sawmill: %w", err)
	}
	return s.compactor.Compact(rep), nil
}

// ExportRows flattens a report to one Row per entry: exceptions, then
// errors, then warns.
func ExportRows(r Report) []Row {
	return export.Rows(r)
}

// ExportGroupRows flattens the grouped lists to one GroupRow per group.
func ExportGroupRows(r Report) []GroupRow {
	return export.GroupRows(r)
}

// WriteCSV writes the report's rows (or group rows) with a header line.
func WriteCSV(w io.Writer, r Report, grouped bool) error {
	return export.WriteCSV(w, r, grouped)
}

// Columns returns the CSV header used for entry rows.
func Columns() []string {
	return append([]string(nil), export.Columns...)
}
