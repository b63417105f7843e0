package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepwagner/schemarepo/pkg/core"
)

func TestParsePackage(t *testing.T) {
	t.Parallel()
	pkg, err := core.ParsePackage("io.example.foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"io", "example", "foo"}, pkg.Parts())
	assert.Equal(t, "io.example.foo", pkg.String())
	assert.Equal(t, "foo", pkg.Last())
	assert.Equal(t, "io.example", pkg.Parent().String())
	assert.Equal(t, "io.example.foo.bar", pkg.Join("bar").String())
	assert.Equal(t, "io.example.foo", pkg.String(), "Join must not modify the receiver")

	for _, bad := range []string{"", ".", "io..example", "io.", "io/example", `io\example`} {
		_, err := core.ParsePackage(bad)
		assert.ErrorIs(t, err, core.ErrMalformed, bad)
	}
}

func TestPackage_HasPrefix(t *testing.T) {
	t.Parallel()
	base := core.NewPackage("io", "example")

	assert.True(t, core.NewPackage("io", "example").HasPrefix(base))
	assert.True(t, core.NewPackage("io", "example", "foo").HasPrefix(base))
	assert.False(t, core.NewPackage("io", "examplefoo").HasPrefix(base))
	assert.False(t, core.NewPackage("io").HasPrefix(base))
	assert.True(t, base.HasPrefix(core.Package{}))
}

func TestPackage_Compare(t *testing.T) {
	t.Parallel()
	a := core.NewPackage("io", "a")
	b := core.NewPackage("io", "b")
	assert.Negative(t, a.Compare(b))
	assert.Zero(t, a.Compare(core.NewPackage("io", "a")))
	assert.True(t, a.Equal(core.NewPackage("io", "a")))
	assert.False(t, a.Equal(b))
}
