package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConflict is returned when publishing over an existing version without force.
	ErrConflict = errors.New("conflict")
	// ErrVersionControl is returned when the version-control tool exits non-zero.
	ErrVersionControl = errors.New("version control failure")
	// ErrNetwork is returned for transport errors and unexpected HTTP responses.
	ErrNetwork = errors.New("network failure")
	// ErrMalformed is returned for corrupt metadata, checksums or configuration.
	ErrMalformed = errors.New("malformed data")
	// ErrInconsistent is returned when an index references an object the paired store cannot supply.
	ErrInconsistent = errors.New("inconsistent repository")
	// ErrReadOnly is returned when publishing to an index that does not accept writes.
	ErrReadOnly = errors.New("read-only index")
)

// ConflictError describes a publish that collides with an existing deployment.
type ConflictError struct {
	Package  Package
	Version  string
	Existing string
	Proposed string
}

func (e *ConflictError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s@%s already published", e.Package, e.Version)
	if e.Existing != "" {
		fmt.Fprintf(&sb, " as %s", e.Existing)
	}
	if e.Proposed != "" {
		fmt.Fprintf(&sb, ", refusing to replace with %s", e.Proposed)
	}
	sb.WriteString(" (use force to overwrite)")
	return sb.String()
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// VersionControlError is a failed invocation of the version-control tool.
// ExitCode is -1 when the process could not be started, in which case Err is set.
type VersionControlError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *VersionControlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
	}
	msg := fmt.Sprintf("%s exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *VersionControlError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrVersionControl, e.Err}
	}
	return []error{ErrVersionControl}
}

// NetworkError is a failed HTTP exchange. Status is zero for transport errors.
type NetworkError struct {
	Method string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *NetworkError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNetwork, e.Err}
	}
	return []error{ErrNetwork}
}

// MalformedError points at bad data. Line is 1-based and zero when unknown.
type MalformedError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	default:
		return e.Reason
	}
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// InconsistentError is an index entry whose object is missing.
type InconsistentError struct {
	Package  Package
	Version  string
	Checksum string
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("index names object %s for %s@%s, but the object store does not have it", e.Checksum, e.Package, e.Version)
}

func (e *InconsistentError) Unwrap() error { return ErrInconsistent }
