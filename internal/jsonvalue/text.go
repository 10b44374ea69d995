package jsonvalue

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

const textChunkSize = 32 * 1024

// escape scanner states
const (
	scanValue    = iota // outside any string
	scanString          // inside a string literal
	scanEscape          // after a backslash
	scanHex             // inside the four digits of \uXXXX
	scanLowSlash        // after a high surrogate, expecting '\'
	scanLowU            // after a high surrogate and '\', expecting 'u'
)

// escapeScanner follows string literals closely enough to pair \uXXXX
// surrogate escapes. Anything else malformed is left for the JSON decoder to
// report.
type escapeScanner struct {
	state  int
	digits int
	code   rune
	high   bool // the escape being read must be a low surrogate
}

func (s *escapeScanner) step(c byte) error {
	switch s.state {
	case scanValue:
		if c == '"' {
			s.state = scanString
		}
	case scanString:
		switch c {
		case '\\':
			s.state = scanEscape
		case '"':
			s.state = scanValue
		}
	case scanEscape:
		if c == 'u' {
			s.startHex()
		} else {
			s.state = scanString
		}
	case scanHex:
		h := unhex(c)
		if h < 0 {
			s.state, s.high = scanString, false
			return nil
		}
		s.code = s.code<<4 | h
		if s.digits++; s.digits == 4 {
			return s.endHex()
		}
	case scanLowSlash:
		if c != '\\' {
			return s.lone()
		}
		s.state = scanLowU
	case scanLowU:
		if c != 'u' {
			return s.lone()
		}
		s.startHex()
	}
	return nil
}

// other accounts for a multi-byte UTF-8 sequence.
func (s *escapeScanner) other() error {
	switch s.state {
	case scanLowSlash, scanLowU:
		return s.lone()
	case scanEscape, scanHex:
		s.state, s.high = scanString, false
	}
	return nil
}

func (s *escapeScanner) startHex() {
	s.state = scanHex
	s.digits = 0
	s.code = 0
}

func (s *escapeScanner) endHex() error {
	isHigh := s.code >= 0xd800 && s.code <= 0xdbff
	isLow := s.code >= 0xdc00 && s.code <= 0xdfff

	switch {
	case s.high && isLow:
		s.high = false
		s.state = scanString
	case s.high:
		return s.lone()
	case isHigh:
		s.high = true
		s.state = scanLowSlash
	case isLow:
		return fmt.Errorf("%w \\u%04x", ErrLoneSurrogate, s.code)
	default:
		s.state = scanString
	}
	return nil
}

func (s *escapeScanner) lone() error {
	return fmt.Errorf("%w: high surrogate not followed by a low surrogate", ErrLoneSurrogate)
}

func unhex(c byte) rune {
	switch {
	case '0' <= c && c <= '9':
		return rune(c - '0')
	case 'a' <= c && c <= 'f':
		return rune(c - 'a' + 10)
	case 'A' <= c && c <= 'F':
		return rune(c - 'A' + 10)
	}
	return -1
}

// textReader passes through bytes of well-formed UTF-8 text and fails with a
// *SyntaxError at the first invalid sequence or unpaired surrogate escape.
// Bytes before the failure are still delivered, so documents preceding it
// decode normally. encoding/json would otherwise replace such input with
// U+FFFD.
type textReader struct {
	r       io.Reader
	chunk   []byte
	ready   []byte // validated, not yet returned
	pending []byte // incomplete rune at the end of the last chunk
	offset  int64  // bytes validated so far
	scan    escapeScanner
	err     error
}

func newTextReader(r io.Reader) *textReader {
	return &textReader{r: r, chunk: make([]byte, textChunkSize)}
}

func (t *textReader) Read(p []byte) (int, error) {
	for len(t.ready) == 0 {
		if t.err != nil {
			return 0, t.err
		}
		t.fill()
	}

	n := copy(p, t.ready)
	t.ready = t.ready[n:]
	return n, nil
}

func (t *textReader) fill() {
	n, err := t.r.Read(t.chunk)
	eof := err != nil

	data := t.chunk[:n]
	if len(t.pending) > 0 {
		data = append(t.pending, data...)
		t.pending = nil
	}

	i := 0
	for i < len(data) {
		c := data[i]
		if c < utf8.RuneSelf {
			if serr := t.scan.step(c); serr != nil {
				t.err = &SyntaxError{Offset: t.offset + int64(i), Err: serr}
				break
			}
			i++
			continue
		}

		if !eof && !utf8.FullRune(data[i:]) {
			t.pending = bytes.Clone(data[i:])
			break
		}

		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			t.err = &SyntaxError{
				Offset: t.offset + int64(i),
				Err:    fmt.Errorf("%w: byte %#x", ErrInvalidUTF8, c),
			}
			break
		}
		if serr := t.scan.other(); serr != nil {
			t.err = &SyntaxError{Offset: t.offset + int64(i), Err: serr}
			break
		}
		i += size
	}

	t.ready = data[:i]
	t.offset += int64(i)

	if t.err == nil && err != nil {
		t.err = err
	}
}
