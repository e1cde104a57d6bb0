package classifier

import (
	"strings"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Severity is the incident bucket a header line belongs to.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarn
	SeverityError // error or exception, decided by the exception typer
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "none"
	}
}

// ERRO and FALHA are the abbreviated/localized spellings emitted by some
// Portuguese-locale application servers.
var (
	defaultErrorLevels   = []string{"ERROR", "SEVERE", "FATAL", "CRITICAL", "ERRO"}
	defaultWarnLevels    = []string{"WARN", "WARNING"}
	defaultErrorKeywords = []string{"EXCEPTION", "ERROR", "FALHA", "FAILED", "SEVERE"}
)

// Classifier decides the severity of a recognized header line from its
// declared level and its message content.
type Classifier struct {
	errorLevels map[string]struct{}
	warnLevels  map[string]struct{}
	keywords    []string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithErrorLevels adds levels treated as errors on top of the built-in set.
func WithErrorLevels(levels ...string) Option {
	return func(c *Classifier) {
		for _, l := range levels {
			if l = strings.ToUpper(strings.TrimSpace(l)); l != "" {
				c.errorLevels[l] = struct{}{}
			}
		}
	}
}

// WithErrorKeywords adds message keywords that promote a line to an error.
func WithErrorKeywords(keywords ...string) Option {
	return func(c *Classifier) {
		for _, k := range keywords {
			if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
				c.keywords = append(c.keywords, k)
			}
		}
	}
}

// New creates a Classifier with the built-in level and keyword sets.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		errorLevels: toSet(defaultErrorLevels),
		warnLevels:  toSet(defaultWarnLevels),
		keywords:    append([]string(nil), defaultErrorKeywords...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns SeverityError when the level is an error level or the
// message mentions an error keyword (the keyword path overrides under-reported
// levels), SeverityWarn for warning levels, SeverityNone otherwise.
func (c *Classifier) Classify(p model.ParsedLine) Severity {
	if _, ok := c.errorLevels[p.Level]; ok {
		return SeverityError
	}
	if c.hasErrorKeyword(p.Message) {
		return SeverityError
	}
	if _, ok := c.warnLevels[p.Level]; ok {
		return SeverityWarn
	}
	return SeverityNone
}

func (c *Classifier) hasErrorKeyword(msg string) bool {
	upper := strings.ToUpper(msg)
	for _, k := range c.keywords {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}
