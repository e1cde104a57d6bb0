package model

// LogLine is one input line with its 1-based position in the document.
type LogLine struct {
	Number int
	Text   string
}

// ParsedLine holds the fields a dialect recognizer extracted from a header line.
type ParsedLine struct {
	Dialect   Dialect
	Timestamp string // opaque, never parsed
	Level     string // upper-case
	Message   string // trimmed
	Subsystem string // "-" when the dialect has none
	MessageID string // "-" when the dialect has none
	Context   string
}
