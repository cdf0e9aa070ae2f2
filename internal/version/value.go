// Package version canonicalizes raw version strings into a form that can be
// compared for equality.
//
// Version strings come from local images, registries and upstream release
// feeds, so they mix semantic versions ("v1.2.3"), commit hashes and free-form
// tags ("nightly"). Normalize reduces each to either an opaque token or a
// sequence of integers. Only equality is defined; there is no ordering.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrTypeMismatch is returned when a Value is compared against something that
// is neither a string nor another Value.
var ErrTypeMismatch = errors.New("version: unsupported comparison type")

// Kind classifies a normalized Value.
type Kind int

const (
	// KindToken is a digit-free string kept verbatim, e.g. "nightly".
	KindToken Kind = iota
	// KindHash is a 40 (SHA-1) or 64 (SHA-256) character hex digest.
	KindHash
	// KindNumeric is a sequence of integer components.
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindHash:
		return "hash"
	case KindNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// hashRegex matches git commit ids: SHA-1 today, SHA-256 in the future.
var hashRegex = regexp.MustCompile(`^(?:[a-fA-F0-9]{40}|[a-fA-F0-9]{64})$`)

// Value is the canonical form of a version string.
type Value struct {
	raw   string
	kind  Kind
	parts []uint64
}

// Normalize converts raw into its canonical form.
//
// Strings without any digit and commit hashes are kept as opaque tokens.
// Everything else is stripped down to digits and separators and the first
// run of integer components is extracted. The extraction is a heuristic that
// handles the vast majority of real tags but not every possible input; for
// example "1.2.3-rc1" yields [1 2 31].
func Normalize(raw string) Value {
	if !strings.ContainsAny(raw, "0123456789") {
		return Value{raw: raw, kind: KindToken}
	}
	if hashRegex.MatchString(raw) {
		return Value{raw: raw, kind: KindHash}
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.':
			sb.WriteRune(r)
		case r == '_':
			sb.WriteByte('.')
		}
	}

	tokens := strings.Split(sb.String(), ".")
	start, end := 0, len(tokens)
	opened := false
	for i, tok := range tokens {
		if tok != "" {
			continue
		}
		if !opened {
			start = i + 1
			opened = true
			continue
		}
		end = i
		break
	}

	parts := make([]uint64, 0, end-start)
	for _, tok := range tokens[start:end] {
		n, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			// Components that overflow uint64 are not version numbers.
			return Value{raw: raw, kind: KindToken}
		}
		parts = append(parts, n)
	}
	return Value{raw: raw, kind: KindNumeric, parts: parts}
}

// Raw returns the string the Value was normalized from.
func (v Value) Raw() string { return v.raw }

// Kind reports how the Value was classified.
func (v Value) Kind() Kind { return v.kind }

// IsNumeric reports whether the Value was decomposed into integers.
func (v Value) IsNumeric() bool { return v.kind == KindNumeric }

// Parts returns a copy of the integer components, or nil for opaque values.
func (v Value) Parts() []uint64 {
	if v.kind != KindNumeric {
		return nil
	}
	out := make([]uint64, len(v.parts))
	copy(out, v.parts)
	return out
}

// String renders the canonical form: dotted components for numeric values,
// the original token otherwise.
func (v Value) String() string {
	if v.kind != KindNumeric {
		return v.raw
	}
	strs := make([]string, len(v.parts))
	for i, p := range v.parts {
		strs[i] = strconv.FormatUint(p, 10)
	}
	return strings.Join(strs, ".")
}

// Equal reports whether both values normalize to the same form. Opaque
// values compare by their original string; numeric values by components.
func (v Value) Equal(other Value) bool {
	if v.IsNumeric() != other.IsNumeric() {
		return false
	}
	if !v.IsNumeric() {
		return v.raw == other.raw
	}
	if len(v.parts) != len(other.parts) {
		return false
	}
	for i := range v.parts {
		if v.parts[i] != other.parts[i] {
			return false
		}
	}
	return true
}

// Compare tests v against a string, Value or *Value. Any other type fails
// with ErrTypeMismatch.
func Compare(v Value, other any) (bool, error) {
	switch o := other.(type) {
	case string:
		return v.Equal(Normalize(o)), nil
	case Value:
		return v.Equal(o), nil
	case *Value:
		if o == nil {
			return false, fmt.Errorf("%w: nil *Value", ErrTypeMismatch)
		}
		return v.Equal(*o), nil
	default:
		return false, fmt.Errorf("%w: %T", ErrTypeMismatch, other)
	}
}

// EqualStrings normalizes both strings and compares them.
func EqualStrings(a, b string) bool {
	return Normalize(a).Equal(Normalize(b))
}
