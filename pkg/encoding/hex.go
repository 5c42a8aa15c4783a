// Package encoding provides text-serializable byte types.
package encoding

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexData is a byte slice that serializes to dash-separated uppercase hex
// ("DE-AD-BE-EF"), the notation PUT uses in deployment scripts. It works
// with encoding/json and both YAML libraries through encoding.TextMarshaler.
type HexData []byte

// MarshalText implements encoding.TextMarshaler.
func (h HexData) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Dashes and
// whitespace between bytes are ignored, case is not significant.
func (h *HexData) UnmarshalText(text []byte) error {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, string(text))
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex data %q: %w", text, err)
	}
	*h = decoded
	return nil
}

// String returns the dash-separated form. Empty data gives "".
func (h HexData) String() string {
	if len(h) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(h)*3 - 1)
	for i, c := range h {
		if i > 0 {
			b.WriteByte('-')
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}
