package jsonvalue

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates the byte stream is not a sequence of well-formed JSON values.
	ErrMalformed = errors.New("jsonvalue: malformed JSON")

	// ErrInvalidUTF8 and ErrLoneSurrogate describe text that would otherwise
	// be silently replaced with U+FFFD. Both come wrapped in a *SyntaxError.
	ErrInvalidUTF8   = errors.New("invalid UTF-8")
	ErrLoneSurrogate = errors.New("unpaired surrogate escape")
)

// SyntaxError describes where decoding of a document failed.
type SyntaxError struct {
	Offset int64 // bytes consumed from the stream when the error was detected
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed JSON at byte %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}
