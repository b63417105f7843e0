package objects

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/source"
)

// DefaultMissingCacheTime is how long a lookup miss is remembered.
const DefaultMissingCacheTime = time.Hour

// CachedObjects mirrors objects from another store into a local directory and
// remembers misses for MissingCacheTime.
type CachedObjects struct {
	src              Objects
	mirror           *FileObjects
	missingDir       string
	missingCacheTime time.Duration
	now              func() time.Time
}

type CacheConfig struct {
	Path string `yaml:"path"`
	// MissingCacheTime defaults to DefaultMissingCacheTime when nil. Zero disables
	// negative caching.
	MissingCacheTime *time.Duration `yaml:"missingCacheTime"`
}

var _ Objects = (*CachedObjects)(nil)

func NewCachedObjects(src Objects, cfg CacheConfig) *CachedObjects {
	ttl := DefaultMissingCacheTime
	if cfg.MissingCacheTime != nil {
		ttl = *cfg.MissingCacheTime
	}
	return &CachedObjects{
		src:              src,
		mirror:           NewFileObjects(cfg.Path),
		missingDir:       filepath.Join(cfg.Path, "missing"),
		missingCacheTime: ttl,
		now:              time.Now,
	}
}

// WithClock replaces the clock used to age missing markers.
func (c *CachedObjects) WithClock(now func() time.Time) *CachedObjects {
	c.now = now
	return c
}

// PutObject writes through to the wrapped store. Nothing is cached locally.
func (c *CachedObjects) PutObject(ctx context.Context, sum checksum.Checksum, r io.Reader, force bool) (bool, error) {
	return c.src.PutObject(ctx, sum, r, force)
}

func (c *CachedObjects) GetObject(ctx context.Context, sum checksum.Checksum) (*source.Source, error) {
	log := slog.With(slog.String("checksum", sum.String()))

	cached, err := c.mirror.GetObject(ctx, sum)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		log.Debug("object cache hit")
		return cached, nil
	}

	marker := c.missingPath(sum)
	if fresh, err := c.missingFresh(marker); err != nil {
		return nil, err
	} else if fresh {
		log.Debug("object known missing")
		return nil, nil
	}
	log.Debug("object cache miss")

	remote, err := c.src.GetObject(ctx, sum)
	if err != nil {
		return nil, err
	}
	if remote == nil {
		if c.missingCacheTime <= 0 {
			return nil, nil
		}
		if err := c.markMissing(marker); err != nil {
			return nil, err
		}
		return nil, nil
	}

	b, err := remote.Bytes()
	if err != nil {
		return nil, err
	}
	if actual := checksum.Sum(b); actual != sum {
		return nil, &core.MalformedError{
			Path:   remote.Name(),
			Reason: fmt.Sprintf("object content hashes to %s, expected %s", actual, sum),
		}
	}
	if _, err := c.mirror.PutObject(ctx, sum, bytes.NewReader(b), true); err != nil {
		return nil, fmt.Errorf("caching object: %w", err)
	}
	return c.mirror.GetObject(ctx, sum)
}

func (c *CachedObjects) missingPath(sum checksum.Checksum) string {
	a, b := shard(sum)
	return filepath.Join(c.missingDir, a, b, sum.String())
}

// missingFresh reports whether a marker exists and is younger than the TTL.
// Expired markers are removed.
func (c *CachedObjects) missingFresh(marker string) (bool, error) {
	stat, err := os.Stat(marker)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("checking missing marker: %w", err)
	}

	if c.now().Sub(stat.ModTime()) < c.missingCacheTime {
		return true, nil
	}
	if err := os.Remove(marker); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("removing expired missing marker: %w", err)
	}
	return false, nil
}

func (c *CachedObjects) markMissing(marker string) error {
	if err := os.MkdirAll(filepath.Dir(marker), 0755); err != nil {
		return fmt.Errorf("creating missing marker directory: %w", err)
	}
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		return fmt.Errorf("writing missing marker: %w", err)
	}
	now := c.now()
	if err := os.Chtimes(marker, now, now); err != nil {
		return fmt.Errorf("touching missing marker: %w", err)
	}
	return nil
}
