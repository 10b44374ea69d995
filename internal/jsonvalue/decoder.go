package jsonvalue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/jacoelho/json2bytes/internal/stack"
)

// frame is an open container waiting for its closing delimiter.
type frame struct {
	object  *Object
	array   Array
	key     string
	needKey bool
}

func (f *frame) add(v Value) {
	if f.object != nil {
		f.object.Set(f.key, v)
		f.needKey = true
		return
	}
	f.array = append(f.array, v)
}

func (f *frame) value() Value {
	if f.object != nil {
		return f.object
	}
	if f.array == nil {
		return Array{}
	}
	return f.array
}

// Decoder reads successive top-level JSON values from a stream.
// Memory is bounded by the size of the largest single document.
type Decoder struct {
	dec    *json.Decoder
	frames *stack.Stack[frame]
	count  int
	err    error
}

func NewDecoder(r io.Reader) *Decoder {
	dec := json.NewDecoder(newTextReader(r))
	dec.UseNumber()

	return &Decoder{
		dec:    dec,
		frames: stack.NewWithCapacity[frame](16),
	}
}

// Next returns the next top-level value. It returns io.EOF once the stream
// holds no further values. Malformed input, including text that is not valid
// UTF-8 and unpaired surrogate escapes, yields a *SyntaxError; failures of the
// underlying reader are returned wrapped as they are. After any error the
// decoder keeps returning that error.
func (d *Decoder) Next() (Value, error) {
	if d.err != nil {
		return nil, d.err
	}

	v, err := d.next()
	if err != nil {
		d.err = err
		d.frames.Reset()
		return nil, err
	}

	d.count++
	return v, nil
}

// Count is the number of documents decoded so far.
func (d *Decoder) Count() int {
	return d.count
}

// InputOffset is the number of bytes of the stream consumed so far.
func (d *Decoder) InputOffset() int64 {
	return d.dec.InputOffset()
}

// All iterates over the remaining documents. Iteration stops after the
// first error, which is yielded with a nil Value; a clean end of stream is
// not reported.
func (d *Decoder) All() iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		for {
			v, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

func (d *Decoder) next() (Value, error) {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.classify(err)
		}

		var v Value
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				d.frames.Push(frame{object: NewObject(4), needKey: true})
				continue
			case '[':
				d.frames.Push(frame{})
				continue
			default:
				f, ok := d.frames.Pop()
				if !ok {
					return nil, d.syntax(fmt.Errorf("unexpected %q", rune(t)))
				}
				v = f.value()
			}
		case string:
			if top := d.frames.PeekRef(); top != nil && top.object != nil && top.needKey {
				top.key = t
				top.needKey = false
				continue
			}
			v = String(t)
		case json.Number:
			v = Number(t)
		case bool:
			v = Bool(t)
		case nil:
			v = Null{}
		default:
			return nil, d.syntax(fmt.Errorf("unexpected token %T", tok))
		}

		top := d.frames.PeekRef()
		if top == nil {
			return v, nil
		}
		top.add(v)
	}
}

func (d *Decoder) classify(err error) error {
	var textErr *SyntaxError
	if errors.As(err, &textErr) {
		return textErr
	}

	if errors.Is(err, io.EOF) {
		if d.frames.IsEmpty() {
			return io.EOF
		}
		return d.syntax(io.ErrUnexpectedEOF)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return d.syntax(err)
	}

	return fmt.Errorf("read input: %w", err)
}

func (d *Decoder) syntax(err error) *SyntaxError {
	return &SyntaxError{Offset: d.dec.InputOffset(), Err: err}
}
