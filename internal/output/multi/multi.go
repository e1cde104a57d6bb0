package multi

import (
	"context"
	"errors"

	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/output"
)

// Multi fans out analyses to multiple output.Output implementations.
// If one output fails, the remaining outputs still receive the analysis.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers a to every wrapped output. Errors are collected but do not
// prevent delivery to subsequent outputs.
func (m *Multi) Write(ctx context.Context, a model.Analysis) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
