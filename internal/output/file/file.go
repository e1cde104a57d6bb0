package file

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hejijunhao/sawmill/internal/engine/compactor"
	"github.com/hejijunhao/sawmill/internal/export"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
)

const defaultBufSize = 64 * 1024 // 64KB

// Option configures a file Output.
type Option func(*Output)

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// Output writes analyses to a file. A path ending in .csv gets one row per
// entry with a leading file column; any other path gets NDJSON, one analysis
// per line.
type Output struct {
	mu        sync.Mutex
	f         *os.File
	w         *bufio.Writer
	csv       *csv.Writer
	path      string
	verbosity compactor.Verbosity
	bufSize   int
}

// New creates (truncating) the file at path.
func New(path string, verbosity compactor.Verbosity, opts ...Option) (*Output, error) {
	o := &Output{
		path:      path,
		verbosity: verbosity,
		bufSize:   defaultBufSize,
	}
	for _, opt := range opts {
		opt(o)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("file output: open %s: %w", path, err)
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, o.bufSize)

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		o.csv = csv.NewWriter(o.w)
		if err := o.csv.Write(append([]string{"file"}, export.Columns...)); err != nil {
			f.Close()
			return nil, fmt.Errorf("file output: write header: %w", err)
		}
	}
	return o, nil
}

func (o *Output) Write(_ context.Context, a model.Analysis) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.csv != nil {
		// CSV rows come from the flat lists, which Minimal would drop.
		for _, row := range export.Rows(a.Report) {
			if err := o.csv.Write(append([]string{a.Name}, row.Record()...)); err != nil {
				return fmt.Errorf("file output: write: %w", err)
			}
		}
		return nil
	}

	data, err := json.Marshal(output.FormatAnalysis(a, o.verbosity))
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	data = append(data, '\n')
	if _, err := o.w.Write(data); err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.csv != nil {
		o.csv.Flush()
		if err := o.csv.Error(); err != nil {
			o.f.Close()
			return fmt.Errorf("file output: flush: %w", err)
		}
	}
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}
