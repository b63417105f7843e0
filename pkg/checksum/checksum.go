// Package checksum implements the SHA-256 content digest used to key stored objects.
package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/thepwagner/schemarepo/pkg/core"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// Checksum is the SHA-256 digest of a package's bytes.
type Checksum [Size]byte

// Compute streams r to EOF through SHA-256.
func Compute(r io.Reader) (Checksum, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Checksum{}, fmt.Errorf("digesting content: %w", err)
	}
	var c Checksum
	copy(c[:], h.Sum(nil))
	return c, nil
}

// Sum digests an in-memory buffer.
func Sum(b []byte) Checksum {
	return Checksum(sha256.Sum256(b))
}

// Parse decodes the hex form of a checksum.
func Parse(s string) (Checksum, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Checksum{}, &core.MalformedError{Reason: fmt.Sprintf("invalid checksum %q: %v", s, err)}
	}
	if len(b) != Size {
		return Checksum{}, &core.MalformedError{Reason: fmt.Sprintf("invalid checksum %q: expected %d bytes, got %d", s, Size, len(b))}
	}
	var c Checksum
	copy(c[:], b)
	return c, nil
}

// String is the lowercase hex form.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// Slice is the hex form of bytes [start, end), used for shard directory names.
func (c Checksum) Slice(start, end int) string {
	return hex.EncodeToString(c[start:end])
}

// IsZero reports whether c is the zero value.
func (c Checksum) IsZero() bool {
	return c == Checksum{}
}

// Compare orders checksums byte-wise.
func (c Checksum) Compare(other Checksum) int {
	return bytes.Compare(c[:], other[:])
}

func (c Checksum) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Checksum) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
