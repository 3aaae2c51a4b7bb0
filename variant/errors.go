package variant

import "fmt"

// FormatError reports a structural problem in an input file: a malformed
// header, a short data line, an unparseable genotype token, or a conflicting
// panel assignment. It always names the file and line so the failure can be
// reproduced exactly.
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Formatf builds a FormatError with a formatted message.
func Formatf(path string, line int, format string, args ...interface{}) *FormatError {
	return &FormatError{Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// IOError reports a read failure (missing file, permission failure, truncated
// compression stream) against the offending path.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
