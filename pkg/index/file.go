package index

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/thepwagner/schemarepo/pkg/atomicfile"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/objects"
)

const (
	// MetadataFile holds the deployments of the package named by its directory.
	MetadataFile = "metadata.json"
	// ConfigFile optionally sits at the index root.
	ConfigFile = "config.json"
	// DefaultObjects is the objects location used when the index has no ConfigFile.
	DefaultObjects = "objects"

	indexDir = "index"
)

// FileIndex keeps one newline-delimited JSON file per package under
// <root>/index/<segment>/.../<segment>/metadata.json.
type FileIndex struct {
	Path   string
	config Config
}

// Config is the optional index-level configuration stored in ConfigFile.
type Config struct {
	Objects string `json:"objects"`
}

type deploymentRecord struct {
	Version string `json:"version"`
	Object  string `json:"object"`
}

var _ Index = (*FileIndex)(nil)

// NewFileIndex opens the index rooted at path. A missing root is an empty index.
func NewFileIndex(path string) (*FileIndex, error) {
	cfg := Config{Objects: DefaultObjects}
	p := filepath.Join(path, ConfigFile)
	b, err := os.ReadFile(p)
	if err == nil {
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, &core.MalformedError{Path: p, Reason: err.Error()}
		}
		if cfg.Objects == "" {
			cfg.Objects = DefaultObjects
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading index config: %w", err)
	}
	return &FileIndex{Path: path, config: cfg}, nil
}

// MetadataPath is the file holding pkg's deployments.
func (f *FileIndex) MetadataPath(pkg core.Package) string {
	parts := append([]string{f.Path, indexDir}, pkg.Parts()...)
	return filepath.Join(append(parts, MetadataFile)...)
}

func (f *FileIndex) Resolve(_ context.Context, pkg core.Package, r core.Range) ([]Deployment, error) {
	all, err := f.load(f.MetadataPath(pkg))
	if err != nil {
		return nil, err
	}
	var ret []Deployment
	for _, d := range all {
		if r.Matches(d.Version) {
			ret = append(ret, d)
		}
	}
	return ret, nil
}

func (f *FileIndex) All(_ context.Context, pkg core.Package) ([]Deployment, error) {
	return f.load(f.MetadataPath(pkg))
}

func (f *FileIndex) GetDeployments(_ context.Context, pkg core.Package, version *semver.Version) ([]Deployment, error) {
	all, err := f.load(f.MetadataPath(pkg))
	if err != nil {
		return nil, err
	}
	var ret []Deployment
	for _, d := range all {
		if d.Version.Equal(version) {
			ret = append(ret, d)
		}
	}
	return ret, nil
}

func (f *FileIndex) ResolveByPrefix(_ context.Context, prefix core.Package) ([]PackageDeployment, error) {
	base := filepath.Join(append([]string{f.Path, indexDir}, prefix.Parts()...)...)
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var ret []PackageDeployment
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != MetadataFile {
			return nil
		}

		rel, err := filepath.Rel(base, filepath.Dir(path))
		if err != nil {
			return err
		}
		pkg := prefix
		if rel != "." {
			pkg = prefix.Join(strings.Split(rel, string(filepath.Separator))...)
		}

		deployments, err := f.load(path)
		if err != nil {
			return err
		}
		for _, dep := range deployments {
			ret = append(ret, PackageDeployment{Package: pkg, Deployment: dep})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking index: %w", err)
	}
	return ret, nil
}

func (f *FileIndex) PutVersion(_ context.Context, c checksum.Checksum, pkg core.Package, version *semver.Version, force bool) error {
	_, _, err := f.putVersion(c, pkg, version, force)
	return err
}

// putVersion returns the metadata path and whether its content changed.
func (f *FileIndex) putVersion(c checksum.Checksum, pkg core.Package, version *semver.Version, force bool) (string, bool, error) {
	p := f.MetadataPath(pkg)
	existing, err := f.load(p)
	if err != nil {
		return "", false, err
	}

	deployments := make([]Deployment, 0, len(existing)+1)
	for _, d := range existing {
		if !d.Version.Equal(version) {
			deployments = append(deployments, d)
			continue
		}
		if d.Object == c {
			slog.Debug("version already published with identical checksum",
				slog.String("package", pkg.String()),
				slog.String("version", version.String()),
			)
			return p, false, nil
		}
		if !force {
			return "", false, &core.ConflictError{
				Package:  pkg,
				Version:  version.String(),
				Existing: d.Object.String(),
				Proposed: c.String(),
			}
		}
		slog.Warn("overwriting published version",
			slog.String("package", pkg.String()),
			slog.String("version", version.String()),
			slog.String("previous", d.Object.String()),
		)
	}
	deployments = append(deployments, Deployment{Version: version, Object: c})
	slices.SortStableFunc(deployments, func(a, b Deployment) int {
		return a.Version.Compare(b.Version)
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range deployments {
		if err := enc.Encode(deploymentRecord{Version: d.Version.String(), Object: d.Object.String()}); err != nil {
			return "", false, fmt.Errorf("encoding deployment: %w", err)
		}
	}
	if err := atomicfile.Write(p, &buf); err != nil {
		return "", false, fmt.Errorf("writing metadata: %w", err)
	}
	return p, true, nil
}

// load reads a metadata file. A missing file has no deployments.
func (f *FileIndex) load(path string) ([]Deployment, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("opening metadata: %w", err)
	}
	defer file.Close()

	var ret []Deployment
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec deploymentRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, &core.MalformedError{Path: path, Line: line, Reason: err.Error()}
		}
		v, err := semver.NewVersion(rec.Version)
		if err != nil {
			return nil, &core.MalformedError{Path: path, Line: line, Reason: fmt.Sprintf("invalid version %q: %v", rec.Version, err)}
		}
		c, err := checksum.Parse(rec.Object)
		if err != nil {
			return nil, &core.MalformedError{Path: path, Line: line, Reason: err.Error()}
		}
		ret = append(ret, Deployment{Version: v, Object: c})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}
	return ret, nil
}

func (f *FileIndex) ObjectsURL() string {
	return f.config.Objects
}

func (f *FileIndex) ObjectsFromIndex(relative string) (objects.Objects, error) {
	if filepath.IsAbs(relative) {
		return nil, fmt.Errorf("objects path %q must be relative to the index", relative)
	}
	return objects.NewFileObjects(filepath.Join(f.Path, filepath.FromSlash(relative))), nil
}
