package input

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is a stream format recognised by its leading bytes.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
	S2
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case S2:
		return "s2"
	default:
		return "none"
	}
}

var (
	magicGzip   = []byte{0x1f, 0x8b}
	magicZstd   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4    = []byte{0x04, 0x22, 0x4d, 0x18}
	magicS2     = []byte("\xff\x06\x00\x00S2sTwO")
	magicSnappy = []byte("\xff\x06\x00\x00sNaPpY")
)

var magics = [][]byte{magicGzip, magicZstd, magicLZ4, magicS2, magicSnappy}

const sniffLen = 10

// Detect identifies the compression format from the first bytes of a stream.
// JSON text never starts with any of these sequences.
func Detect(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, magicGzip):
		return Gzip
	case bytes.HasPrefix(head, magicZstd):
		return Zstd
	case bytes.HasPrefix(head, magicLZ4):
		return LZ4
	case bytes.HasPrefix(head, magicS2), bytes.HasPrefix(head, magicSnappy):
		return S2
	default:
		return None
	}
}

// decompress wraps br with the decoder matching its content. The returned
// function releases decoder resources.
func decompress(br *bufio.Reader) (io.Reader, func() error, error) {
	head := sniff(br)
	noop := func() error { return nil }

	c := Detect(head)
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", c, err)
		}
		return zr, zr.Close, nil
	case Zstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", c, err)
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case LZ4:
		return lz4.NewReader(br), noop, nil
	case S2:
		return s2.NewReader(br), noop, nil
	default:
		return br, noop, nil
	}
}

// sniff peeks at the start of br one byte at a time and stops as soon as the
// bytes seen match a magic number or cannot begin one, so a short document on
// a live pipe is not held back waiting for more input. Short streams return
// fewer bytes; they are simply not compressed.
func sniff(br *bufio.Reader) []byte {
	var head []byte
	for n := 1; n <= sniffLen; n++ {
		head, _ = br.Peek(n)
		if len(head) < n || Detect(head) != None || !isMagicPrefix(head) {
			break
		}
	}
	return head
}

func isMagicPrefix(head []byte) bool {
	for _, m := range magics {
		if bytes.HasPrefix(m, head) {
			return true
		}
	}
	return false
}
