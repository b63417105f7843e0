// Package source provides lazily-readable handles to package bytes.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

type kind int

const (
	kindPath kind = iota
	kindBytes
	kindStdin
)

// Source is a handle to package bytes backed by a file, a buffer or standard input.
// Nothing is read until Open or Bytes is called.
type Source struct {
	name     string
	kind     kind
	path     string
	data     []byte
	readOnly bool
}

// FromPath returns a Source reading the file at path.
func FromPath(path string) *Source {
	return &Source{name: path, kind: kindPath, path: path}
}

// FromBytes returns a Source over an in-memory buffer.
func FromBytes(name string, data []byte) *Source {
	return &Source{name: name, kind: kindBytes, data: data}
}

// Stdin returns a Source reading standard input.
func Stdin() *Source {
	return &Source{name: "<stdin>", kind: kindStdin}
}

// Name describes where the bytes come from.
func (s *Source) Name() string {
	return s.name
}

// Path is the backing file, or "" if the source is not file-backed.
func (s *Source) Path() string {
	if s.kind != kindPath {
		return ""
	}
	return s.path
}

// ReadOnly reports whether the source represents published, immutable content.
func (s *Source) ReadOnly() bool {
	return s.readOnly
}

// WithReadOnly returns a copy of the source with the read-only flag set to ro.
func (s *Source) WithReadOnly(ro bool) *Source {
	c := *s
	c.readOnly = ro
	return &c
}

// Open returns a fresh reader over the content. The caller must close it.
func (s *Source) Open() (io.ReadCloser, error) {
	switch s.kind {
	case kindPath:
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("opening source: %w", err)
		}
		return f, nil
	case kindBytes:
		return io.NopCloser(bytes.NewReader(s.data)), nil
	case kindStdin:
		return io.NopCloser(os.Stdin), nil
	default:
		return nil, fmt.Errorf("unknown source kind %d", s.kind)
	}
}

// Bytes reads the whole content.
func (s *Source) Bytes() ([]byte, error) {
	if s.kind == kindBytes {
		return s.data, nil
	}
	r, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.name, err)
	}
	return b, nil
}

func (s *Source) String() string {
	if s.readOnly {
		return s.name + " (read-only)"
	}
	return s.name
}
