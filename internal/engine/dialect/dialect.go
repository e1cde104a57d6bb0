// Package dialect recognizes header lines of the supported application-server
// log formats and extracts their fields.
package dialect

import (
	"regexp"
	"strings"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Recognizer parses lines of a single dialect grammar.
type Recognizer interface {
	Name() string
	Parse(line string) (model.ParsedLine, bool)
}

// regexRecognizer extracts fields from named capture groups. Recognized group
// names: date, level, msg, subsystem, logger, msgid, context.
type regexRecognizer struct {
	name    string
	dialect model.Dialect
	re      *regexp.Regexp
	idx     map[string]int
}

func newRegexRecognizer(name string, d model.Dialect, pattern string) *regexRecognizer {
	re := regexp.MustCompile(pattern)
	idx := make(map[string]int)
	for i, n := range re.SubexpNames() {
		if n != "" {
			idx[n] = i
		}
	}
	return &regexRecognizer{name: name, dialect: d, re: re, idx: idx}
}

func (r *regexRecognizer) Name() string { return r.name }

func (r *regexRecognizer) Parse(line string) (model.ParsedLine, bool) {
	m := r.re.FindStringSubmatch(line)
	if m == nil {
		return model.ParsedLine{}, false
	}
	group := func(name string) string {
		i, ok := r.idx[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(m[i])
	}

	p := model.ParsedLine{
		Dialect:   r.dialect,
		Timestamp: group("date"),
		Level:     strings.ToUpper(group("level")),
		Message:   group("msg"),
		Subsystem: model.Placeholder,
		MessageID: model.Placeholder,
		Context:   group("context"),
	}
	if s := group("subsystem"); s != "" {
		p.Subsystem = s
	} else if s := group("logger"); s != "" {
		p.Subsystem = s
	}
	if id := group("msgid"); id != "" {
		p.MessageID = id
	}
	return p, true
}

// Level alternatives are the only case-insensitive part of each pattern.
const (
	weblogicPattern = `^(?:####)?<(?P<date>[^>]+)>\s*<(?P<level>[^>]+)>\s*<(?P<subsystem>[^>]+)>\s*<(?P<msgid>[^>]+)>\s*<(?P<msg>.*)>$`

	liferayPattern = `^(?P<date>\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(?:[.,]\d{3})?)\s+` +
		`(?P<level>(?i:TRACE|DEBUG|INFO|WARNING|WARN|ERROR|SEVERE|FATAL))\s+` +
		`\[(?P<context>[^\]]+)\]\[(?P<logger>[^\]]+)\]\s*(?P<msg>.*)$`

	liferayShortPattern = `^(?P<date>\d{2}:\d{2}:\d{2}[.,]\d+)\s+\[(?P<level>\w+)\]\s*(?P<msg>.*)$`

	javaBracketPattern = `^(?P<date>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),?\d*\s+(?P<level>\w+)\s+\[.*?\]\[.*?\]\s*(?P<msg>.*)$`

	javaSimplePattern = `^(?P<date>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+-\s+(?P<level>\w+)\s+-\s+(?P<msg>.*)$`
)

// Default returns the built-in recognizers in priority order.
func Default() []Recognizer {
	return []Recognizer{
		newRegexRecognizer("weblogic", model.DialectWebLogic, weblogicPattern),
		newRegexRecognizer("liferay", model.DialectLiferay, liferayPattern),
		newRegexRecognizer("liferay_short", model.DialectLiferay, liferayShortPattern),
		newRegexRecognizer("java_bracket", model.DialectJava, javaBracketPattern),
		newRegexRecognizer("java_simple", model.DialectJava, javaSimplePattern),
	}
}

// Matcher tries its recognizers in order; the first match wins.
type Matcher struct {
	recognizers []Recognizer
}

// New creates a Matcher over the given recognizers, or Default() when none are given.
func New(recognizers ...Recognizer) *Matcher {
	if len(recognizers) == 0 {
		recognizers = Default()
	}
	return &Matcher{recognizers: recognizers}
}

// Match parses a raw line. Trailing CR/LF is ignored. ok is false when no
// dialect recognizes the line.
func (m *Matcher) Match(line string) (model.ParsedLine, bool) {
	line = strings.TrimRight(line, "\r\n")
	for _, r := range m.recognizers {
		if p, ok := r.Parse(line); ok {
			return p, true
		}
	}
	return model.ParsedLine{}, false
}

// Names lists recognizer names in priority order.
func (m *Matcher) Names() []string {
	names := make([]string, len(m.recognizers))
	for i, r := range m.recognizers {
		names[i] = r.Name()
	}
	return names
}
