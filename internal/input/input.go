// Package input opens the byte streams the extractor reads from: files on a
// filesystem or standard input, transparently decompressed when the content
// starts with a known compression magic number.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Stdin is the input name that selects standard input.
const Stdin = "-"

var ErrOpen = errors.New("cannot open input")

// Opener resolves input names to readers.
type Opener struct {
	fs    afero.Fs
	stdin io.Reader
}

func NewOpener(fs afero.Fs, stdin io.Reader) *Opener {
	return &Opener{fs: fs, stdin: stdin}
}

// Open returns the decompressed content of name. Closing the returned reader
// releases the decompressor and the file; closing standard input is a no-op.
func (o *Opener) Open(name string) (io.ReadCloser, error) {
	var (
		src    io.Reader
		closer func() error
	)

	if name == Stdin {
		src = o.stdin
		closer = func() error { return nil }
	} else {
		f, err := o.fs.Open(name)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrOpen, name, err)
		}
		if info, err := f.Stat(); err == nil && info.IsDir() {
			f.Close()
			return nil, fmt.Errorf("%w %s: is a directory", ErrOpen, name)
		}
		src = f
		closer = f.Close
	}

	r, release, err := decompress(bufio.NewReaderSize(src, 64*1024))
	if err != nil {
		closer()
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, name, err)
	}

	return &readCloser{Reader: r, closers: []func() error{release, closer}}, nil
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (rc *readCloser) Close() error {
	var errs []error
	for _, c := range rc.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
