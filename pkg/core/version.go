package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a semantic version.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, &MalformedError{Reason: fmt.Sprintf("invalid version %q: %v", s, err)}
	}
	return v, nil
}

// Range is a version constraint. The zero value matches any version.
type Range struct {
	raw         string
	constraints *semver.Constraints
}

// AnyRange is the unconstrained range.
func AnyRange() Range {
	return Range{}
}

// ParseRange parses a constraint such as ">=1.0.0, <2.0.0". "" and "*" are unconstrained.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Range{}, nil
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return Range{}, &MalformedError{Reason: fmt.Sprintf("invalid version range %q: %v", s, err)}
	}
	return Range{raw: s, constraints: c}, nil
}

// ExactRange matches only v.
func ExactRange(v *semver.Version) Range {
	raw := "=" + v.String()
	c, err := semver.NewConstraint(raw)
	if err != nil {
		// a parsed version always renders to a valid constraint
		panic(err)
	}
	return Range{raw: raw, constraints: c}
}

// Any reports whether the range is unconstrained.
func (r Range) Any() bool {
	return r.constraints == nil
}

// Matches reports whether v satisfies the range.
func (r Range) Matches(v *semver.Version) bool {
	if r.constraints == nil {
		return true
	}
	return r.constraints.Check(v)
}

func (r Range) String() string {
	if r.constraints == nil {
		return "*"
	}
	return r.raw
}
