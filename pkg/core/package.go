package core

import (
	"fmt"
	"slices"
	"strings"
)

// Package is a dotted package name such as io.example.foo. It carries no version.
type Package struct {
	parts []string
}

// NewPackage builds a Package from its segments.
func NewPackage(parts ...string) Package {
	return Package{parts: slices.Clone(parts)}
}

// ParsePackage splits a dotted name into segments. Empty segments are rejected.
func ParsePackage(s string) (Package, error) {
	if s == "" {
		return Package{}, &MalformedError{Reason: "empty package name"}
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, `/\`) {
			return Package{}, &MalformedError{Reason: fmt.Sprintf("invalid package name %q", s)}
		}
	}
	return Package{parts: parts}, nil
}

// Parts returns a copy of the segments.
func (p Package) Parts() []string {
	return slices.Clone(p.parts)
}

// Len is the number of segments.
func (p Package) Len() int {
	return len(p.parts)
}

// IsEmpty reports whether the package has no segments.
func (p Package) IsEmpty() bool {
	return len(p.parts) == 0
}

// Last is the final segment, or "" for the empty package.
func (p Package) Last() string {
	if len(p.parts) == 0 {
		return ""
	}
	return p.parts[len(p.parts)-1]
}

// Parent drops the final segment.
func (p Package) Parent() Package {
	if len(p.parts) == 0 {
		return p
	}
	return Package{parts: slices.Clone(p.parts[:len(p.parts)-1])}
}

// Join appends segments.
func (p Package) Join(parts ...string) Package {
	return Package{parts: append(slices.Clone(p.parts), parts...)}
}

// HasPrefix reports whether prefix is a whole-segment prefix of p.
// io.example matches io.example.foo but not io.examplefoo.
func (p Package) HasPrefix(prefix Package) bool {
	if len(prefix.parts) > len(p.parts) {
		return false
	}
	return slices.Equal(p.parts[:len(prefix.parts)], prefix.parts)
}

// Equal compares segment-wise.
func (p Package) Equal(other Package) bool {
	return slices.Equal(p.parts, other.parts)
}

// Compare orders packages segment-wise.
func (p Package) Compare(other Package) int {
	return slices.Compare(p.parts, other.parts)
}

func (p Package) String() string {
	return strings.Join(p.parts, ".")
}
