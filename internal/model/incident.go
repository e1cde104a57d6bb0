package model

// Category is the bucket an incident entry lands in.
type Category string

const (
	CategoryException Category = "exception"
	CategoryError     Category = "error"
	CategoryWarn      Category = "warn"
)

// Type labels for entries without a concrete exception type.
const (
	GenericErrorType = "Error/Exception"
	WarnType         = "WARN"
)

// Placeholder is used for absent subsystem, message id, location and stack text.
const Placeholder = "-"

// Entry is one incident built from a header line plus any folded stack lines.
type Entry struct {
	Category         Category `json:"category" yaml:"category"`
	Type             string   `json:"type" yaml:"type"`
	ShortDescription string   `json:"short_description" yaml:"short_description"`
	Location         string   `json:"location" yaml:"location"`
	Lines            []int    `json:"lines" yaml:"lines"`
	Count            int      `json:"count" yaml:"count"`
	Message          string   `json:"message" yaml:"message"`
	StackTrace       []string `json:"stacktrace" yaml:"stacktrace"`
	Source           Dialect  `json:"source" yaml:"source"`
	Subsystem        string   `json:"subsystem" yaml:"subsystem"`
	MessageID        string   `json:"message_id" yaml:"message_id"`
	Timestamp        string   `json:"timestamp" yaml:"timestamp"`
	Level            string   `json:"level" yaml:"level"`
	Context          string   `json:"context,omitempty" yaml:"context,omitempty"`
}

// FirstLine returns the header line number.
func (e Entry) FirstLine() int {
	if len(e.Lines) == 0 {
		return 0
	}
	return e.Lines[0]
}

// Group aggregates every entry of one category sharing a signature.
type Group struct {
	Fingerprint      string   `json:"fingerprint" yaml:"fingerprint"`
	Type             string   `json:"type" yaml:"type"`
	ShortDescription string   `json:"short_description" yaml:"short_description"`
	Location         string   `json:"location" yaml:"location"`
	Source           Dialect  `json:"source" yaml:"source"`
	Subsystem        string   `json:"subsystem" yaml:"subsystem"`
	MessageID        string   `json:"message_id" yaml:"message_id"`
	Lines            []int    `json:"lines" yaml:"lines"`
	Count            int      `json:"count" yaml:"count"`
	StackTraces      []string `json:"stacktraces" yaml:"stacktraces"`
}

// Summary holds aggregate counts for a report.
type Summary struct {
	TotalExceptions int            `json:"total_exceptions" yaml:"total_exceptions"`
	TotalErrors     int            `json:"total_errors" yaml:"total_errors"`
	TotalWarns      int            `json:"total_warns" yaml:"total_warns"`
	BySource        map[string]int `json:"by_source" yaml:"by_source"`
}

// Report is the result of analyzing one document.
type Report struct {
	Exceptions        []Entry `json:"exceptions" yaml:"exceptions"`
	Errors            []Entry `json:"errors" yaml:"errors"`
	Warns             []Entry `json:"warns" yaml:"warns"`
	ExceptionsGrouped []Group `json:"exceptions_grouped" yaml:"exceptions_grouped"`
	ErrorsGrouped     []Group `json:"errors_grouped" yaml:"errors_grouped"`
	WarnsGrouped      []Group `json:"warns_grouped" yaml:"warns_grouped"`
	Summary           Summary `json:"summary" yaml:"summary"`
}
