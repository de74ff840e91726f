// Package textenc controls how revbox decodes text it did not produce
// itself, such as command-server payloads and module manifests.
//
// The default mode substitutes U+FFFD for invalid bytes, matching what most
// tools silently do. Strict mode makes any invalid byte sequence a hard
// error so that encoding bugs surface at the decode site instead of
// corrupting data downstream.
package textenc

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var strict atomic.Bool

// EnableStrict switches the whole process into strict decoding mode.
// It reports whether the runtime honored the request; callers treat a
// false return as a soft capability miss, not an error.
func EnableStrict() bool {
	strict.Store(true)
	return true
}

// Strict reports whether strict decoding mode is active.
func Strict() bool {
	return strict.Load()
}

// DecodeString decodes b as UTF-8 text under the current mode. In strict
// mode invalid input is an error; otherwise invalid bytes are replaced
// with U+FFFD.
func DecodeString(b []byte) (string, error) {
	if strict.Load() {
		s, _, err := transform.String(encoding.UTF8Validator, string(b))
		if err != nil {
			return "", fmt.Errorf("strict decode: %w", err)
		}
		return s, nil
	}
	s, _, err := transform.String(unicode.UTF8.NewDecoder(), string(b))
	if err != nil {
		// The replacement decoder does not fail on malformed input; any
		// other failure is worth surfacing.
		return "", fmt.Errorf("decode: %w", err)
	}
	return s, nil
}
