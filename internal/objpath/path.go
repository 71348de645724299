// Package objpath models chains of property accesses applied to a value and
// the recursion guards used while analysing cyclic value graphs.
//
// A path such as ["foo", "bar"] stands for the value reached by reading
// .foo.bar from some entity. The empty path is the entity itself.
package objpath

import "strings"

// Key is a single property name in a path. Sentinel keys start with a NUL
// byte, which cannot appear in a parsed property name.
type Key string

const (
	// UnknownKey means "any possible continuation".
	UnknownKey Key = "\x00unknown"

	// ToStringTagKey stands for the well-known Symbol.toStringTag.
	ToStringTagKey Key = "\x00Symbol.toStringTag"
)

// IsKnown returns true if the key is a concrete property name.
func (k Key) IsKnown() bool {
	return len(k) == 0 || k[0] != 0
}

func (k Key) String() string {
	switch k {
	case UnknownKey:
		return "?"
	case ToStringTagKey:
		return "@@toStringTag"
	}
	return string(k)
}

// Path is an ordered sequence of keys.
type Path []Key

var (
	// EmptyPath denotes the value itself.
	EmptyPath = Path{}

	// UnknownPath is used whenever the exact continuation is not known.
	UnknownPath = Path{UnknownKey}
)

// IsPrefix returns true if a is a prefix of b. An unknown key in a matches
// any key in b.
func IsPrefix(a, b Path) bool {
	if len(a) > len(b) {
		return false
	}
	for i, key := range a {
		if key != UnknownKey && key != b[i] {
			return false
		}
	}
	return true
}

// WithoutFirst returns the path with its first key removed.
func WithoutFirst(p Path) Path {
	if len(p) == 0 {
		return EmptyPath
	}
	return p[1:]
}

// Append returns a new path with key added at the end. The input is never
// modified, so paths can be shared freely.
func Append(p Path, key Key) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Prepend returns a new path starting with key followed by p.
func Prepend(key Key, p Path) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, key)
	return append(out, p...)
}

func (p Path) String() string {
	if len(p) == 0 {
		return "<self>"
	}
	parts := make([]string, len(p))
	for i, key := range p {
		parts[i] = key.String()
	}
	return strings.Join(parts, ".")
}

// hashKey is the comparable form of a path used in tracker maps.
func (p Path) hashKey() string {
	var sb strings.Builder
	for _, key := range p {
		sb.WriteString(string(key))
		sb.WriteByte(0x01)
	}
	return sb.String()
}
