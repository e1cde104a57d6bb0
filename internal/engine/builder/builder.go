// Package builder turns a sequence of log lines into incident entries in one
// forward pass, folding stack-trace lines into the entry they follow.
package builder

import (
	"regexp"
	"strings"

	"github.com/hejijunhao/sawmill/internal/engine/classifier"
	"github.com/hejijunhao/sawmill/internal/engine/dialect"
	"github.com/hejijunhao/sawmill/internal/model"
)

var (
	reStackFrame   = regexp.MustCompile(`^\s*at\s+`)
	reContinuation = regexp.MustCompile(`^\s*(?:Caused by:|Suppressed:|\.\.\. \d+ more)`)
)

// Result holds the entries of one pass partitioned by final category.
type Result struct {
	Exceptions []model.Entry
	Errors     []model.Entry
	Warns      []model.Entry
}

// Builder holds the line recognizers. It keeps no per-document state, so a
// single Builder may run any number of concurrent passes.
type Builder struct {
	matcher    *dialect.Matcher
	classifier *classifier.Classifier
}

// New creates a Builder.
func New(m *dialect.Matcher, c *classifier.Classifier) *Builder {
	return &Builder{matcher: m, classifier: c}
}

// Build scans lines top to bottom. A header line classified as error or
// warning opens a new entry; stack frames and continuation lines directly
// after it are folded in; any other line closes the open entry. Blank lines
// are not tolerated between a header and its frames.
//
// Categories are settled only after the scan, so an entry that starts as a
// generic error and later discovers a typed exception in its stack trace ends
// up in Exceptions alone.
func (b *Builder) Build(lines []model.LogLine) Result {
	var (
		pending []*model.Entry
		current *model.Entry
	)

	for _, ln := range lines {
		text := strings.TrimRight(ln.Text, "\r\n")

		if p, ok := b.matcher.Match(text); ok {
			current = nil
			switch b.classifier.Classify(p) {
			case classifier.SeverityError:
				if typ, ok := classifier.ExceptionType(p.Message); ok {
					current = newEntry(p, ln.Number, model.CategoryException, typ)
				} else {
					current = newEntry(p, ln.Number, model.CategoryError, model.GenericErrorType)
				}
			case classifier.SeverityWarn:
				current = newEntry(p, ln.Number, model.CategoryWarn, model.WarnType)
			}
			if current != nil {
				pending = append(pending, current)
			}
			continue
		}

		if current != nil && isContinuation(text) {
			fold(current, text, ln.Number)
			continue
		}
		current = nil
	}

	return partition(pending)
}

func isContinuation(line string) bool {
	return reStackFrame.MatchString(line) || reContinuation.MatchString(line)
}

// fold appends a stack line to the open entry and refines its location and type.
func fold(e *model.Entry, line string, number int) {
	clean := strings.TrimSpace(line)
	e.StackTrace = append(e.StackTrace, clean)
	e.Message += "\n" + clean
	e.Lines = append(e.Lines, number)

	if e.Location == model.Placeholder && (strings.Contains(clean, "Caused by:") || reStackFrame.MatchString(line)) {
		e.Location = clean
	}

	if e.Category == model.CategoryError {
		if typ, ok := classifier.ExceptionType(clean); ok {
			e.Category = model.CategoryException
			e.Type = typ
		}
	}
}

func newEntry(p model.ParsedLine, number int, cat model.Category, typ string) *model.Entry {
	return &model.Entry{
		Category:         cat,
		Type:             typ,
		ShortDescription: ShortDescription(p.Message),
		Location:         model.Placeholder,
		Lines:            []int{number},
		Count:            1,
		Message:          p.Message,
		StackTrace:       []string{},
		Source:           p.Dialect,
		Subsystem:        p.Subsystem,
		MessageID:        p.MessageID,
		Timestamp:        p.Timestamp,
		Level:            p.Level,
		Context:          p.Context,
	}
}

// ShortDescription returns the text after the first colon, trimmed, or the
// whole message when it has no colon.
func ShortDescription(msg string) string {
	if i := strings.IndexByte(msg, ':'); i >= 0 {
		return strings.TrimSpace(msg[i+1:])
	}
	return msg
}

func partition(pending []*model.Entry) Result {
	r := Result{
		Exceptions: []model.Entry{},
		Errors:     []model.Entry{},
		Warns:      []model.Entry{},
	}
	for _, e := range pending {
		switch e.Category {
		case model.CategoryException:
			r.Exceptions = append(r.Exceptions, *e)
		case model.CategoryError:
			r.Errors = append(r.Errors, *e)
		case model.CategoryWarn:
			r.Warns = append(r.Warns, *e)
		}
	}
	return r
}
