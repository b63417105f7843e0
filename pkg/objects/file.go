package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thepwagner/schemarepo/pkg/atomicfile"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/source"
)

// FileObjects stores objects on the local filesystem as <root>/<aa>/<bb>/<checksum>.reproto.
type FileObjects struct {
	Path string
}

var _ Objects = (*FileObjects)(nil)

func NewFileObjects(path string) *FileObjects {
	return &FileObjects{Path: path}
}

// ObjectPath is where c is stored.
func (f *FileObjects) ObjectPath(c checksum.Checksum) string {
	a, b := shard(c)
	return filepath.Join(f.Path, a, b, c.String()+"."+Extension)
}

func (f *FileObjects) PutObject(_ context.Context, c checksum.Checksum, r io.Reader, force bool) (bool, error) {
	p := f.ObjectPath(c)
	if !force {
		if _, err := os.Stat(p); err == nil {
			slog.Debug("object already present", slog.String("checksum", c.String()))
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("checking object: %w", err)
		}
	}

	if err := atomicfile.Write(p, r); err != nil {
		return false, fmt.Errorf("writing object %s: %w", c, err)
	}
	slog.Debug("wrote object", slog.String("checksum", c.String()), slog.String("path", p))
	return true, nil
}

func (f *FileObjects) GetObject(_ context.Context, c checksum.Checksum) (*source.Source, error) {
	p := f.ObjectPath(c)
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("checking object: %w", err)
	}
	return source.FromPath(p), nil
}
