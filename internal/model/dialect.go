package model

import "fmt"

// Dialect identifies the log line grammar a header line was recognized by.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectWebLogic
	DialectLiferay
	DialectJava
)

// Dialects returns the supported dialects in summary order.
func Dialects() []Dialect {
	return []Dialect{DialectWebLogic, DialectLiferay, DialectJava}
}

func (d Dialect) String() string {
	switch d {
	case DialectWebLogic:
		return "weblogic"
	case DialectLiferay:
		return "liferay"
	case DialectJava:
		return "java"
	default:
		return "unknown"
	}
}

// ParseDialect is the inverse of String.
func ParseDialect(s string) (Dialect, error) {
	for _, d := range Dialects() {
		if d.String() == s {
			return d, nil
		}
	}
	if s == "unknown" {
		return DialectUnknown, nil
	}
	return DialectUnknown, fmt.Errorf("unknown dialect %q", s)
}

func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dialect) UnmarshalText(b []byte) error {
	v, err := ParseDialect(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
