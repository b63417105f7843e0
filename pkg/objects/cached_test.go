package objects_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/objects"
	"github.com/thepwagner/schemarepo/pkg/source"
)

// countingObjects wraps a store and counts lookups.
type countingObjects struct {
	objects.Objects
	gets int
	puts int
}

func (c *countingObjects) GetObject(ctx context.Context, sum checksum.Checksum) (*source.Source, error) {
	c.gets++
	return c.Objects.GetObject(ctx, sum)
}

func (c *countingObjects) PutObject(ctx context.Context, sum checksum.Checksum, r io.Reader, force bool) (bool, error) {
	c.puts++
	return c.Objects.PutObject(ctx, sum, r, force)
}

func TestCachedObjects(t *testing.T) {
	t.Parallel()
	testObjects(t, objects.NewCachedObjects(objects.NewMemoryObjects(objects.MemoryConfig{}), objects.CacheConfig{Path: t.TempDir()}))
}

func TestCachedObjects_MirrorsHits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	upstream := &countingObjects{Objects: objects.NewMemoryObjects(objects.MemoryConfig{})}
	cacheDir := t.TempDir()
	cached := objects.NewCachedObjects(upstream, objects.CacheConfig{Path: cacheDir})

	content := []byte("schema")
	sum := checksum.Sum(content)
	changed, err := cached.PutObject(ctx, sum, bytes.NewReader(content), false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, upstream.puts)

	_, err = os.Stat(objects.NewFileObjects(cacheDir).ObjectPath(sum))
	assert.ErrorIs(t, err, os.ErrNotExist, "puts are not cached locally")

	for i := 0; i < 3; i++ {
		src, err := cached.GetObject(ctx, sum)
		require.NoError(t, err)
		require.NotNil(t, src)
		b, err := src.Bytes()
		require.NoError(t, err)
		assert.Equal(t, content, b)

		// never increments because of the mirror
		assert.Equal(t, 1, upstream.gets)
	}
}

func TestCachedObjects_NegativeCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	upstream := &countingObjects{Objects: objects.NewMemoryObjects(objects.MemoryConfig{})}
	cacheDir := t.TempDir()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached := objects.NewCachedObjects(upstream, objects.CacheConfig{
		Path:             cacheDir,
		MissingCacheTime: ptr(time.Minute),
	}).WithClock(func() time.Time { return now })

	sum := checksum.Sum([]byte("missing"))

	src, err := cached.GetObject(ctx, sum)
	require.NoError(t, err)
	assert.Nil(t, src)
	assert.Equal(t, 1, upstream.gets)

	marker := filepath.Join(cacheDir, "missing", sum.Slice(0, 1), sum.Slice(1, 2), sum.String())
	_, err = os.Stat(marker)
	require.NoError(t, err)

	src, err = cached.GetObject(ctx, sum)
	require.NoError(t, err)
	assert.Nil(t, src)
	assert.Equal(t, 1, upstream.gets, "known-missing lookups do not reach upstream")

	now = now.Add(2 * time.Minute)
	src, err = cached.GetObject(ctx, sum)
	require.NoError(t, err)
	assert.Nil(t, src)
	assert.Equal(t, 2, upstream.gets, "expired markers fall through")
}

func TestCachedObjects_ExpiredMarkerFindsNewObject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	upstream := objects.NewMemoryObjects(objects.MemoryConfig{})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached := objects.NewCachedObjects(upstream, objects.CacheConfig{
		Path:             t.TempDir(),
		MissingCacheTime: ptr(time.Minute),
	}).WithClock(func() time.Time { return now })

	content := []byte("late")
	sum := checksum.Sum(content)
	src, err := cached.GetObject(ctx, sum)
	require.NoError(t, err)
	assert.Nil(t, src)

	_, err = upstream.PutObject(ctx, sum, bytes.NewReader(content), false)
	require.NoError(t, err)

	src, err = cached.GetObject(ctx, sum)
	require.NoError(t, err)
	assert.Nil(t, src, "still within missing_cache_time")

	now = now.Add(time.Hour)
	src, err = cached.GetObject(ctx, sum)
	require.NoError(t, err)
	require.NotNil(t, src)
	b, err := src.Bytes()
	require.NoError(t, err)
	assert.Equal(t, content, b)
}

func TestCachedObjects_RejectsCorruptUpstream(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	upstream := objects.NewMemoryObjects(objects.MemoryConfig{})
	cached := objects.NewCachedObjects(upstream, objects.CacheConfig{Path: t.TempDir()})

	sum := checksum.Sum([]byte("expected"))
	_, err := upstream.PutObject(ctx, sum, bytes.NewReader([]byte("tampered")), false)
	require.NoError(t, err)

	_, err = cached.GetObject(ctx, sum)
	assert.ErrorIs(t, err, core.ErrMalformed)
}

func ptr[T any](v T) *T {
	return &v
}

func TestCachedObjects_ZeroMissingCacheTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	upstream := &countingObjects{Objects: objects.NewMemoryObjects(objects.MemoryConfig{})}
	cacheDir := t.TempDir()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached := objects.NewCachedObjects(upstream, objects.CacheConfig{
		Path:             cacheDir,
		MissingCacheTime: ptr(time.Duration(0)),
	}).WithClock(func() time.Time { return now })

	sum := checksum.Sum([]byte("missing"))
	for i := 1; i <= 3; i++ {
		src, err := cached.GetObject(ctx, sum)
		require.NoError(t, err)
		assert.Nil(t, src)
		assert.Equal(t, i, upstream.gets, "every miss reaches upstream")
		now = now.Add(30 * time.Minute)
	}

	_, err := os.Stat(filepath.Join(cacheDir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCachedObjects_DefaultMissingCacheTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	upstream := &countingObjects{Objects: objects.NewMemoryObjects(objects.MemoryConfig{})}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached := objects.NewCachedObjects(upstream, objects.CacheConfig{Path: t.TempDir()}).
		WithClock(func() time.Time { return now })

	sum := checksum.Sum([]byte("missing"))
	_, err := cached.GetObject(ctx, sum)
	require.NoError(t, err)

	now = now.Add(objects.DefaultMissingCacheTime - time.Minute)
	_, err = cached.GetObject(ctx, sum)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.gets)

	now = now.Add(2 * time.Minute)
	_, err = cached.GetObject(ctx, sum)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.gets)
}
