package model

import "time"

// RawLog is one log document produced by a connector and consumed by the engine.
type RawLog struct {
	Name      string // file name, object key or URL
	Provider  string // connector name (e.g. "file", "http")
	Data      []byte // undecoded document bytes
	FetchedAt time.Time
}

// Analysis pairs a document with the report computed for it.
type Analysis struct {
	Name     string `json:"name" yaml:"name"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Lines    int    `json:"lines" yaml:"lines"`
	Report   Report `json:"report" yaml:"report"`
}
