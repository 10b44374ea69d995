// Package separator decodes the --separator argument into raw bytes.
package separator

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Default is the ASCII record separator, written after every match unless
// configured otherwise.
const Default = `\x1e`

var ErrInvalid = errors.New("invalid separator")

// Decode converts a separator spec into the bytes to write.
//
// A spec starting with \x or \X is hex-escaped: every \x marker is dropped and
// the remaining hex digits, which must be of even count, are decoded pairwise
// (`\x00\x1e` and `\x001e` both yield 0x00 0x1E; a bare `\x` yields no
// bytes). Anything else is taken literally.
func Decode(spec string) ([]byte, error) {
	if !hasHexPrefix(spec) {
		return []byte(spec), nil
	}

	digits := stripMarkers(spec)
	if len(digits)%2 != 0 {
		return nil, fmt.Errorf("%w: %q must have an even number of hex digits", ErrInvalid, spec)
	}

	out, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalid, spec, err)
	}
	return out, nil
}

// Encode renders bytes in the form accepted by Decode, for display.
func Encode(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		fmt.Fprintf(&sb, `\x%02x`, c)
	}
	return sb.String()
}

func hasHexPrefix(s string) bool {
	return strings.HasPrefix(s, `\x`) || strings.HasPrefix(s, `\X`)
}

func stripMarkers(s string) string {
	return strings.NewReplacer(`\x`, "", `\X`, "").Replace(s)
}
