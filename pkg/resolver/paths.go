// Package resolver turns required packages into sources, from local directories or a
// chain of other resolvers.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/objects"
	"github.com/thepwagner/schemarepo/pkg/source"
)

// Paths resolves packages from files laid out as <dir>/<seg>/.../<last>[-<version>].reproto.
type Paths struct {
	Dirs []string
}

var _ core.Resolver = (*Paths)(nil)

func NewPaths(dirs ...string) *Paths {
	return &Paths{Dirs: dirs}
}

// pathFile is a schema file named after a package, optionally versioned.
type pathFile struct {
	base    string
	version *semver.Version
	path    string
}

// Resolve returns files whose version satisfies the range. Unversioned files only
// qualify when the range is unconstrained.
func (p *Paths) Resolve(_ context.Context, required core.RequiredPackage) ([]core.Resolved, error) {
	pkg := required.Package
	if pkg.IsEmpty() {
		return nil, nil
	}

	var ret []core.Resolved
	for _, dir := range p.Dirs {
		files, err := listFiles(filepath.Join(append([]string{dir}, pkg.Parent().Parts()...)...))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.base != pkg.Last() {
				continue
			}
			if f.version == nil && !required.Range.Any() {
				continue
			}
			if f.version != nil && !required.Range.Matches(f.version) {
				continue
			}
			slog.Debug("resolved from path", slog.String("package", required.String()), slog.String("path", f.path))
			ret = append(ret, core.Resolved{Version: f.version, Source: source.FromPath(f.path)})
		}
	}
	return ret, nil
}

// ResolveByPrefix returns the files for prefix itself and every file in the
// directory tree named by prefix.
func (p *Paths) ResolveByPrefix(_ context.Context, prefix core.Package) ([]core.ResolvedByPrefix, error) {
	if prefix.IsEmpty() {
		return nil, nil
	}

	var ret []core.ResolvedByPrefix
	for _, dir := range p.Dirs {
		siblings, err := listFiles(filepath.Join(append([]string{dir}, prefix.Parent().Parts()...)...))
		if err != nil {
			return nil, err
		}
		for _, f := range siblings {
			if f.base == prefix.Last() {
				ret = append(ret, core.ResolvedByPrefix{Package: prefix, Version: f.version, Source: source.FromPath(f.path)})
			}
		}

		root := filepath.Join(append([]string{dir}, prefix.Parts()...)...)
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			files, err := listFiles(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			parent := prefix
			if rel != "." {
				parent = prefix.Join(strings.Split(rel, string(filepath.Separator))...)
			}
			for _, f := range files {
				ret = append(ret, core.ResolvedByPrefix{Package: parent.Join(f.base), Version: f.version, Source: source.FromPath(f.path)})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	return ret, nil
}

// listFiles returns the schema files directly inside dir, versioned files
// ascending after unversioned ones. A missing directory has none.
func listFiles(dir string) ([]pathFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var ret []pathFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem, ok := strings.CutSuffix(e.Name(), "."+objects.Extension)
		if !ok || stem == "" {
			continue
		}

		f := pathFile{base: stem, path: filepath.Join(dir, e.Name())}
		if base, rawVersion, found := strings.Cut(stem, "-"); found {
			v, err := semver.NewVersion(rawVersion)
			if err != nil {
				slog.Debug("ignoring file with invalid version", slog.String("path", f.path), slog.String("version", rawVersion))
				continue
			}
			f.base = base
			f.version = v
		}
		ret = append(ret, f)
	}

	slices.SortStableFunc(ret, func(a, b pathFile) int {
		if c := strings.Compare(a.base, b.base); c != 0 {
			return c
		}
		switch {
		case a.version == nil && b.version == nil:
			return 0
		case a.version == nil:
			return -1
		case b.version == nil:
			return 1
		default:
			return a.version.Compare(b.version)
		}
	})
	return ret, nil
}
