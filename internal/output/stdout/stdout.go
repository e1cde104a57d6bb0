package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hejijunhao/sawmill/internal/engine/compactor"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
)

// Format selects the encoding written to the terminal.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
	}
}

// Option configures a stdout Output.
type Option func(*Output)

// WithWriter replaces os.Stdout as the destination.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.w = w }
}

// WithPretty indents JSON output.
func WithPretty() Option {
	return func(o *Output) { o.pretty = true }
}

// Output writes analyses to stdout as text, JSON or YAML.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	format    Format
	verbosity compactor.Verbosity
	pretty    bool
	count     int
}

// New creates a stdout Output with verbosity-aware trimming.
func New(format Format, verbosity compactor.Verbosity, opts ...Option) *Output {
	o := &Output{w: os.Stdout, format: format, verbosity: verbosity}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Output) Write(_ context.Context, a model.Analysis) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	formatted := output.FormatAnalysis(a, o.verbosity)

	var err error
	switch o.format {
	case FormatJSON:
		enc := json.NewEncoder(o.w)
		if o.pretty {
			enc.SetIndent("", "  ")
		}
		err = enc.Encode(formatted)
	case FormatYAML:
		// yaml.Encoder only separates documents it wrote itself.
		if o.count > 0 {
			_, err = io.WriteString(o.w, "---\n")
		}
		if err == nil {
			enc := yaml.NewEncoder(o.w)
			enc.SetIndent(2)
			if err = enc.Encode(formatted); err == nil {
				err = enc.Close()
			}
		}
	default:
		if o.count > 0 {
			_, err = io.WriteString(o.w, "\n")
		}
		if err == nil {
			_, err = io.WriteString(o.w, renderText(o.w, formatted))
		}
	}
	if err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	o.count++
	return nil
}

func (o *Output) Close() error {
	return nil
}
