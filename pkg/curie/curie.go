// Package curie provides compact namespace-qualified identifiers ("CURIEs")
// such as GO:0003674 or MGI:MGI:1918911, as used throughout GO annotation files.
package curie

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedIdentifier is returned when a string cannot be split into a
// non-empty namespace and a non-empty local identifier.
var ErrMalformedIdentifier = errors.New("malformed identifier")

// Curie is an immutable two-part identifier. The zero value represents
// "no identifier" and is never produced by Parse.
type Curie struct {
	Namespace string
	LocalID   string
}

// New builds a Curie from its parts without validation.
func New(namespace, localID string) Curie {
	return Curie{Namespace: namespace, LocalID: localID}
}

// Parse splits s on its first colon. The local identifier may itself contain
// colons, so "MGI:MGI:1918911" parses to namespace "MGI" and local id
// "MGI:1918911".
func Parse(s string) (Curie, error) {
	trimmed := strings.TrimSpace(s)
	namespace, localID, found := strings.Cut(trimmed, ":")
	if !found {
		return Curie{}, fmt.Errorf("%w: %q has no namespace separator", ErrMalformedIdentifier, s)
	}
	if namespace == "" {
		return Curie{}, fmt.Errorf("%w: %q has an empty namespace", ErrMalformedIdentifier, s)
	}
	if localID == "" {
		return Curie{}, fmt.Errorf("%w: %q has an empty local id", ErrMalformedIdentifier, s)
	}
	return Curie{Namespace: namespace, LocalID: localID}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Curie {
	parsed, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

// String returns the canonical "namespace:local_id" form, or "" for the zero value.
func (c Curie) String() string {
	if c.IsZero() {
		return ""
	}
	return c.Namespace + ":" + c.LocalID
}

// IsZero reports whether c is the zero Curie.
func (c Curie) IsZero() bool {
	return c.Namespace == "" && c.LocalID == ""
}

// EqualFold compares two curies ignoring case. Plain == remains the
// case-sensitive comparison.
func (c Curie) EqualFold(other Curie) bool {
	return strings.EqualFold(c.Namespace, other.Namespace) && strings.EqualFold(c.LocalID, other.LocalID)
}

// Compare orders curies by namespace, then local id.
func (c Curie) Compare(other Curie) int {
	if cmp := strings.Compare(c.Namespace, other.Namespace); cmp != 0 {
		return cmp
	}
	return strings.Compare(c.LocalID, other.LocalID)
}

// MarshalText encodes the curie in canonical form.
func (c Curie) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a canonical curie. Empty text yields the zero value.
func (c *Curie) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = Curie{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
