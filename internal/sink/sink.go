// Package sink writes matched strings to the output stream with the
// configured framing.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jacoelho/json2bytes/internal/walker"
)

var (
	ErrWrite          = errors.New("write output")
	ErrDuplicate      = errors.New("duplicate dropped")
	ErrInvalidFraming = errors.New("framing must be one of: separator, line, null")
	ErrInvalidFormat  = errors.New("format must be one of: raw, jsonl")
)

// Framing selects what follows every raw match.
type Framing string

const (
	FramingSeparator Framing = "separator" // the separator bytes
	FramingLine      Framing = "line"      // a newline
	FramingNull      Framing = "null"      // a newline and a NUL byte
)

func ParseFraming(s string) (Framing, error) {
	switch f := Framing(strings.ToLower(strings.TrimSpace(s))); f {
	case FramingSeparator, FramingLine, FramingNull:
		return f, nil
	case "":
		return FramingSeparator, nil
	default:
		return "", fmt.Errorf("%w, got: %s", ErrInvalidFraming, s)
	}
}

// Format selects how a match is rendered.
type Format string

const (
	FormatRaw   Format = "raw"
	FormatJSONL Format = "jsonl"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatRaw, FormatJSONL:
		return f, nil
	case "":
		return FormatRaw, nil
	default:
		return "", fmt.Errorf("%w, got: %s", ErrInvalidFormat, s)
	}
}

// Options configure a Sink. They do not change during a run.
type Options struct {
	Format    Format
	Framing   Framing
	Separator []byte
	Unique    bool
}

// Record is a match together with where it was found.
type Record struct {
	Input    string
	Document int
	Match    walker.Match
}

// recordNamespace scopes the content ids of jsonl records.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("json2bytes"))

// ContentID is a deterministic identifier of text.
func ContentID(text string) uuid.UUID {
	return uuid.NewSHA1(recordNamespace, []byte(text))
}

type jsonRecord struct {
	ID       string  `json:"id"`
	Input    string  `json:"input"`
	Document int     `json:"document"`
	Field    *string `json:"field"`
	Text     string  `json:"text"`
}

// Sink buffers output; callers must Flush to make writes visible.
type Sink struct {
	w       *bufio.Writer
	opts    Options
	trailer []byte
	seen    map[uint64]struct{}
}

func New(w io.Writer, opts Options) *Sink {
	if opts.Format == "" {
		opts.Format = FormatRaw
	}
	if opts.Framing == "" {
		opts.Framing = FramingSeparator
	}

	s := &Sink{
		w:       bufio.NewWriterSize(w, 32*1024),
		opts:    opts,
		trailer: trailer(opts),
	}
	if opts.Unique {
		s.seen = make(map[uint64]struct{})
	}
	return s
}

func trailer(opts Options) []byte {
	if opts.Format == FormatJSONL {
		return []byte{'\n'}
	}

	switch opts.Framing {
	case FramingLine:
		return []byte{'\n'}
	case FramingNull:
		return []byte{'\n', 0}
	default:
		return opts.Separator
	}
}

// Write emits rec followed by its framing and returns the number of bytes
// written, framing included. With the Unique option a text already written
// is dropped and Write returns ErrDuplicate.
func (s *Sink) Write(rec Record) (int, error) {
	if s.seen != nil {
		sum := xxhash.Sum64String(rec.Match.Text)
		if _, dup := s.seen[sum]; dup {
			return 0, ErrDuplicate
		}
		s.seen[sum] = struct{}{}
	}

	var (
		n   int
		err error
	)
	switch s.opts.Format {
	case FormatJSONL:
		n, err = s.writeJSON(rec)
	default:
		n, err = s.w.WriteString(rec.Match.Text)
	}
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	m, err := s.w.Write(s.trailer)
	if err != nil {
		return n + m, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return n + m, nil
}

func (s *Sink) writeJSON(rec Record) (int, error) {
	out := jsonRecord{
		ID:       ContentID(rec.Match.Text).String(),
		Input:    rec.Input,
		Document: rec.Document,
		Text:     rec.Match.Text,
	}
	if rec.Match.Field.Valid {
		name := rec.Match.Field.Name
		out.Field = &name
	}

	b, err := json.Marshal(out)
	if err != nil {
		return 0, err
	}
	return s.w.Write(b)
}

// Flush writes buffered output to the underlying writer.
func (s *Sink) Flush() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
