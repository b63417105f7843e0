package index_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/index"
	"github.com/thepwagner/schemarepo/pkg/objects"
)

func mustPackage(t testing.TB, s string) core.Package {
	t.Helper()
	pkg, err := core.ParsePackage(s)
	require.NoError(t, err)
	return pkg
}

func mustRange(t testing.TB, s string) core.Range {
	t.Helper()
	r, err := core.ParseRange(s)
	require.NoError(t, err)
	return r
}

func versions(deployments []index.Deployment) []string {
	ret := make([]string, 0, len(deployments))
	for _, d := range deployments {
		ret = append(ret, d.Version.String())
	}
	return ret
}

func newFileIndex(t testing.TB) *index.FileIndex {
	t.Helper()
	idx, err := index.NewFileIndex(t.TempDir())
	require.NoError(t, err)
	return idx
}

func TestFileIndex_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newFileIndex(t)
	pkg := mustPackage(t, "io.example")

	// published out of order, stored ascending
	for _, v := range []string{"2.0.0", "1.0.0", "1.2.0"} {
		require.NoError(t, idx.PutVersion(ctx, checksum.Sum([]byte(v)), pkg, semver.MustParse(v), false))
	}

	all, err := idx.All(ctx, pkg)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.2.0", "2.0.0"}, versions(all))

	matched, err := idx.Resolve(ctx, pkg, mustRange(t, ">=1.0.0, <2.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.2.0"}, versions(matched))
	assert.Equal(t, checksum.Sum([]byte("1.2.0")), matched[1].Object)

	matched, err = idx.Resolve(ctx, pkg, core.AnyRange())
	require.NoError(t, err)
	assert.Len(t, matched, 3)

	matched, err = idx.Resolve(ctx, mustPackage(t, "io.unknown"), core.AnyRange())
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestFileIndex_MetadataFormat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newFileIndex(t)
	pkg := mustPackage(t, "io.example.foo")

	sum := checksum.Sum([]byte("abc"))
	require.NoError(t, idx.PutVersion(ctx, sum, pkg, semver.MustParse("1.0.0"), false))

	p := filepath.Join(idx.Path, "index", "io", "example", "foo", "metadata.json")
	assert.Equal(t, p, idx.MetadataPath(pkg))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0.0","object":"`+sum.String()+`"}`+"\n", string(b))
}

func TestFileIndex_PutVersionConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newFileIndex(t)
	pkg := mustPackage(t, "io.example")
	v := semver.MustParse("1.0.0")

	first := checksum.Sum([]byte("a"))
	second := checksum.Sum([]byte("b"))
	require.NoError(t, idx.PutVersion(ctx, first, pkg, v, false))

	// identical content is not a conflict
	require.NoError(t, idx.PutVersion(ctx, first, pkg, v, false))

	err := idx.PutVersion(ctx, second, pkg, v, false)
	require.ErrorIs(t, err, core.ErrConflict)
	var conflict *core.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.String(), conflict.Existing)
	assert.Equal(t, second.String(), conflict.Proposed)

	require.NoError(t, idx.PutVersion(ctx, second, pkg, v, true))
	deployments, err := idx.GetDeployments(ctx, pkg, v)
	require.NoError(t, err)
	require.Len(t, deployments, 1)
	assert.Equal(t, second, deployments[0].Object)
}

func TestFileIndex_ResolveByPrefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newFileIndex(t)

	for _, name := range []string{"io.example", "io.example.foo", "io.example.foo.bar", "io.examplefoo", "com.other"} {
		require.NoError(t, idx.PutVersion(ctx, checksum.Sum([]byte(name)), mustPackage(t, name), semver.MustParse("1.0.0"), false))
	}

	found, err := idx.ResolveByPrefix(ctx, mustPackage(t, "io.example"))
	require.NoError(t, err)
	var names []string
	for _, pd := range found {
		names = append(names, pd.Package.String())
	}
	assert.ElementsMatch(t, []string{"io.example", "io.example.foo", "io.example.foo.bar"}, names)

	found, err = idx.ResolveByPrefix(ctx, mustPackage(t, "org.missing"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFileIndex_Malformed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newFileIndex(t)
	pkg := mustPackage(t, "io.example")

	good := `{"version":"1.0.0","object":"` + checksum.Sum([]byte("x")).String() + `"}`
	cases := map[string]struct {
		content string
		line    int
	}{
		"bad json":     {content: good + "\n{nope\n", line: 2},
		"bad version":  {content: `{"version":"one","object":"` + checksum.Sum([]byte("x")).String() + `"}` + "\n", line: 1},
		"bad checksum": {content: good + "\n\n" + `{"version":"2.0.0","object":"abcd"}` + "\n", line: 3},
	}
	for label, tc := range cases {
		p := idx.MetadataPath(pkg)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(tc.content), 0644))

		_, err := idx.Resolve(ctx, pkg, core.AnyRange())
		require.ErrorIs(t, err, core.ErrMalformed, label)
		var malformed *core.MalformedError
		require.ErrorAs(t, err, &malformed, label)
		assert.Equal(t, p, malformed.Path, label)
		assert.Equal(t, tc.line, malformed.Line, label)
	}
}

func TestFileIndex_Objects(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		idx := newFileIndex(t)
		assert.Equal(t, "objects", idx.ObjectsURL())

		store, err := idx.ObjectsFromIndex(idx.ObjectsURL())
		require.NoError(t, err)
		require.IsType(t, &objects.FileObjects{}, store)
		assert.Equal(t, filepath.Join(idx.Path, "objects"), store.(*objects.FileObjects).Path)
	})

	t.Run("configured", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"objects": "https://objects.example.com/"}`), 0644))
		idx, err := index.NewFileIndex(dir)
		require.NoError(t, err)
		assert.Equal(t, "https://objects.example.com/", idx.ObjectsURL())
	})

	t.Run("malformed config", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{`), 0644))
		_, err := index.NewFileIndex(dir)
		assert.ErrorIs(t, err, core.ErrMalformed)
	})

	t.Run("absolute path rejected", func(t *testing.T) {
		t.Parallel()
		idx := newFileIndex(t)
		_, err := idx.ObjectsFromIndex(string(filepath.Separator) + strings.Join([]string{"tmp", "objects"}, string(filepath.Separator)))
		assert.Error(t, err)
	})
}
