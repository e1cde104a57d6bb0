package classifier

import "regexp"

// reExceptionType matches a possibly dot-qualified identifier ending in
// Exception or Error, e.g. java.lang.NullPointerException or OutOfMemoryError.
var reExceptionType = regexp.MustCompile(`[a-zA-Z_$][\w.$]*(?:Exception|Error)`)

// ExceptionType returns the leftmost exception/error type name in s.
func ExceptionType(s string) (string, bool) {
	t := reExceptionType.FindString(s)
	return t, t != ""
}
