package output

import (
	"github.com/hejijunhao/sawmill/internal/engine/compactor"
	"github.com/hejijunhao/sawmill/internal/model"
)

// FormatAnalysis returns a copy of the analysis trimmed according to verbosity.
// At Minimal only grouped lists survive, with one line per stack trace.
// At Standard long messages and stacks are elided. Full preserves everything.
func FormatAnalysis(a model.Analysis, verbosity compactor.Verbosity) model.Analysis {
	a.Report = compactor.New(verbosity).Compact(a.Report)
	return a
}
