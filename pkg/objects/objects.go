// Package objects stores raw package bytes keyed by their checksum.
package objects

import (
	"context"
	"io"

	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/source"
)

// Extension is appended to object file names.
const Extension = "reproto"

// Objects is a blob store keyed by checksum.
type Objects interface {
	// PutObject stores the content of r under c. It reports whether anything was written:
	// an existing object is left alone unless force is set.
	PutObject(ctx context.Context, c checksum.Checksum, r io.Reader, force bool) (bool, error)

	// GetObject returns the object, or nil if the store does not have it.
	GetObject(ctx context.Context, c checksum.Checksum) (*source.Source, error)
}

// shard splits a checksum into the two directory levels objects are stored under.
func shard(c checksum.Checksum) (string, string) {
	return c.Slice(0, 1), c.Slice(1, 2)
}
