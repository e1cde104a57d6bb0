package compactor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Verbosity controls how much detail a report retains for output.
type Verbosity int

const (
	Minimal  Verbosity = iota // grouped lists only, one line per stack
	Standard                  // flat and grouped lists, long stacks elided
	Full                      // retain everything
)

// String returns the flag/config spelling of v.
func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Standard:
		return "standard"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Verbosity(%d)", int(v))
	}
}

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return Minimal, nil
	case "standard", "":
		return Standard, nil
	case "full":
		return Full, nil
	default:
		return Standard, fmt.Errorf("unknown verbosity %q", s)
	}
}

const (
	defaultMaxFrames = 10
	tailFrames       = 2
	messageLimit     = 2000
	summaryLimit     = 120
)

// Compactor trims reports for human and machine consumers.
type Compactor struct {
	Verbosity Verbosity
	maxFrames int
}

// Option configures a Compactor.
type Option func(*Compactor)

// WithMaxFrames sets how many leading frames survive stack elision.
func WithMaxFrames(n int) Option {
	return func(c *Compactor) {
		if n > 0 {
			c.maxFrames = n
		}
	}
}

// New creates a Compactor with the given verbosity level.
func New(v Verbosity, opts ...Option) *Compactor {
	c := &Compactor{Verbosity: v, maxFrames: defaultMaxFrames}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compact returns a trimmed copy of r. Summary counts are never changed and
// r itself is left untouched.
func (c *Compactor) Compact(r model.Report) model.Report {
	switch c.Verbosity {
	case Full:
		return r
	case Minimal:
		out := r
		out.Exceptions = []model.Entry{}
		out.Errors = []model.Entry{}
		out.Warns = []model.Entry{}
		out.ExceptionsGrouped = c.groups(r.ExceptionsGrouped, firstLine)
		out.ErrorsGrouped = c.groups(r.ErrorsGrouped, firstLine)
		out.WarnsGrouped = c.groups(r.WarnsGrouped, firstLine)
		return out
	default:
		out := r
		out.Exceptions = c.entries(r.Exceptions)
		out.Errors = c.entries(r.Errors)
		out.Warns = c.entries(r.Warns)
		out.ExceptionsGrouped = c.groups(r.ExceptionsGrouped, c.elideBlock)
		out.ErrorsGrouped = c.groups(r.ErrorsGrouped, c.elideBlock)
		out.WarnsGrouped = c.groups(r.WarnsGrouped, c.elideBlock)
		return out
	}
}

func (c *Compactor) entries(in []model.Entry) []model.Entry {
	out := make([]model.Entry, len(in))
	for i, e := range in {
		e.Message = truncate(e.Message, messageLimit)
		e.StackTrace = truncateStackTrace(e.StackTrace, c.maxFrames)
		out[i] = e
	}
	return out
}

func (c *Compactor) groups(in []model.Group, stack func(string) string) []model.Group {
	out := make([]model.Group, len(in))
	for i, g := range in {
		g.ShortDescription = summarize(g.ShortDescription)
		traces := make([]string, len(g.StackTraces))
		for j, s := range g.StackTraces {
			traces[j] = stack(s)
		}
		g.StackTraces = traces
		out[i] = g
	}
	return out
}

func (c *Compactor) elideBlock(block string) string {
	return strings.Join(truncateStackTrace(strings.Split(block, "\n"), c.maxFrames), "\n")
}

func firstLine(block string) string {
	if i := strings.IndexByte(block, '\n'); i >= 0 {
		return block[:i]
	}
	return block
}

// truncate cuts s to maxLen runes, appending "..." when anything was dropped.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// summarize keeps the first line, cut at a word boundary within summaryLimit runes.
func summarize(s string) string {
	s = firstLine(s)
	if utf8.RuneCountInString(s) <= summaryLimit {
		return s
	}
	cut := truncate(s, summaryLimit)
	cut = strings.TrimSuffix(cut, "...")
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ") + "..."
}

// truncateStackTrace keeps the first maxFrames lines and the last tailFrames,
// replacing the middle with an omission marker.
func truncateStackTrace(frames []string, maxFrames int) []string {
	if len(frames) <= maxFrames+tailFrames {
		return frames
	}
	omitted := len(frames) - maxFrames - tailFrames
	out := make([]string, 0, maxFrames+tailFrames+1)
	out = append(out, frames[:maxFrames]...)
	out = append(out, fmt.Sprintf("... (%d frames omitted)", omitted))
	out = append(out, frames[len(frames)-tailFrames:]...)
	return out
}
