// Package fingerprint identifies the exact tool configuration that
// produced an index snapshot. Two runs share a fingerprint iff they run
// the same ufi version with the same format-relevant settings; any
// difference invalidates previously recorded timestamps.
package fingerprint

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is an opaque one-line identity value compared by exact
// equality. The zero value is the empty fingerprint.
type Fingerprint struct {
	value string
}

// From constructs a Fingerprint from one line of text. Any text is
// accepted verbatim, including the empty string; callers only ever read
// it back as a single line, so no validation is needed here.
func From(line string) Fingerprint {
	return Fingerprint{value: line}
}

// Compute derives a Fingerprint from the tool version and the set of
// format-relevant settings. The settings combine order-insensitively,
// so callers do not have to normalize ordering before calling. The
// result is fixed-width hex and can never contain a line terminator.
func Compute(version string, settings ...string) Fingerprint {
	var combined uint64
	for _, s := range settings {
		combined ^= xxhash.Sum64String(s)
	}

	d := xxhash.New()
	d.WriteString(version)
	fmt.Fprintf(d, "%016x", combined)
	return Fingerprint{value: fmt.Sprintf("%016x", d.Sum64())}
}

// Equal reports whether two fingerprints carry the same identity value.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.value == other.value
}

// String renders the fingerprint back to the line of text it was
// constructed from, so From(f.String()) == f.
func (f Fingerprint) String() string {
	return f.value
}
