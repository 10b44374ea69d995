package extract

import (
	"errors"
	"fmt"
)

var (
	ErrParse = errors.New("parse error")
	ErrRead  = errors.New("read error")
)

// ParseError reports a malformed document. Output of the documents before it
// has already been written.
type ParseError struct {
	Input    string
	Document int   // 1-based index of the failing document within Input
	Offset   int64 // bytes of Input consumed when the error was detected
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: document %d: %v", e.Input, e.Document, e.Err)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
