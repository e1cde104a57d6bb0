package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed sample.log
var sampleLog string

//go:embed expected.json
var expectedJSON []byte

// Expected is the hand-checked outcome of analyzing sample.log.
type Expected struct {
	TotalExceptions  int            `json:"total_exceptions"`
	TotalErrors      int            `json:"total_errors"`
	TotalWarns       int            `json:"total_warns"`
	BySource         map[string]int `json:"by_source"`
	ExceptionGroups  int            `json:"exception_groups"`
	ErrorGroups      int            `json:"error_groups"`
	WarnGroups       int            `json:"warn_groups"`
	ExceptionTypes   []string       `json:"exception_types"`
	NullPointerLines []int          `json:"null_pointer_lines"`
}

// SampleLog returns the mixed-dialect fixture.
func SampleLog() string { return sampleLog }

// SampleLines returns the fixture split into lines.
func SampleLines() []string {
	return strings.Split(strings.TrimSuffix(sampleLog, "\n"), "\n")
}

// LoadExpected parses the embedded expected.json.
func LoadExpected() (Expected, error) {
	var exp Expected
	if err := json.Unmarshal(expectedJSON, &exp); err != nil {
		return Expected{}, fmt.Errorf("parse expected.json: %w", err)
	}
	return exp, nil
}
