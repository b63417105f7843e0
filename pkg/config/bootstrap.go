package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/git"
	"github.com/thepwagner/schemarepo/pkg/index"
	"github.com/thepwagner/schemarepo/pkg/objects"
	"github.com/thepwagner/schemarepo/pkg/repository"
)

// DefaultIndex is used when nothing else names an index. It is opened read-only.
const DefaultIndex = "git+https://github.com/reproto/reproto-index"

type Options struct {
	Platform Platform
	// Config is the loaded local config file, nil if there is none.
	Config *Config

	// ManifestIndex and ManifestObjects come from the project manifest and win over Config.
	ManifestIndex   string
	ManifestObjects string

	// NoRepository disables the index entirely.
	NoRepository bool

	// GitEnv is appended to the environment of every git invocation.
	GitEnv []string
}

func (o Options) repository() RepositoryConfig {
	if o.Config == nil {
		return RepositoryConfig{}
	}
	return o.Config.Repository
}

// IndexURL is the index to open and whether it is the read-only default.
func (o Options) IndexURL() (string, bool) {
	if o.ManifestIndex != "" {
		return o.ManifestIndex, false
	}
	if idx := o.repository().Index; idx != "" {
		return idx, false
	}
	return DefaultIndex, true
}

// ObjectsURL is the explicitly configured objects store, "" to use the index's.
func (o Options) ObjectsURL() string {
	if o.ManifestObjects != "" {
		return o.ManifestObjects
	}
	return o.repository().Objects
}

// CacheHome is where remote objects and checkouts are cached.
func (o Options) CacheHome() string {
	if home := o.repository().CacheHome; home != "" {
		return home
	}
	return o.Platform.CacheDir
}

// RepoDir holds git checkouts of remote indexes.
func (o Options) RepoDir() string {
	if dir := o.repository().RepoDir; dir != "" {
		return dir
	}
	return filepath.Join(o.CacheHome(), "git")
}

// Bootstrap opens the index and objects store named by opts.
func Bootstrap(ctx context.Context, opts Options) (*repository.Repository, error) {
	missingCacheTime, err := opts.repository().missingCacheTime()
	if err != nil {
		return nil, err
	}
	cache := objects.CacheConfig{
		Path:             filepath.Join(opts.CacheHome(), "objects"),
		MissingCacheTime: missingCacheTime,
	}

	if opts.NoRepository {
		slog.Debug("repository disabled")
		return repository.New(index.NoIndex{}, objects.NewMemoryObjects(objects.MemoryConfig{})), nil
	}

	rawIndex, isDefault := opts.IndexURL()
	indexScheme, err := ParseScheme(rawIndex)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	idx, err := openIndex(ctx, indexScheme, opts)
	if err != nil {
		return nil, err
	}

	var objs objects.Objects
	if rawObjects := opts.ObjectsURL(); rawObjects != "" {
		objectsScheme, err := ParseScheme(rawObjects)
		if err != nil {
			return nil, fmt.Errorf("objects: %w", err)
		}
		objs, err = openObjects(ctx, objectsScheme, opts)
		if err != nil {
			return nil, err
		}
	} else {
		objs, err = indexObjects(ctx, idx, opts)
		if err != nil {
			return nil, err
		}
	}

	if _, remote := objs.(*objects.HTTPObjects); remote {
		slog.Debug("caching remote objects", slog.String("path", cache.Path))
		objs = objects.NewCachedObjects(objs, cache)
	}
	if isDefault {
		idx = index.ReadOnly{Index: idx}
	}
	slog.Debug("opened repository", slog.String("index", rawIndex), slog.Bool("read_only", isDefault))
	return repository.New(idx, objs), nil
}

func openIndex(ctx context.Context, s Scheme, opts Options) (index.Index, error) {
	switch s.Kind {
	case LocalFile:
		return index.NewFileIndex(s.Path)
	case VersionControlled:
		repo, err := checkout(ctx, s, opts)
		if err != nil {
			return nil, err
		}
		return index.NewGitIndex(repo, s.URL)
	case HTTP:
		return nil, fmt.Errorf("index: %s: http is only supported for objects", s)
	default:
		return nil, fmt.Errorf("index: unsupported scheme %s", s.Kind)
	}
}

func openObjects(ctx context.Context, s Scheme, opts Options) (objects.Objects, error) {
	switch s.Kind {
	case LocalFile:
		return objects.NewFileObjects(s.Path), nil
	case HTTP:
		return objects.NewHTTPObjects(*s.URL), nil
	case VersionControlled:
		repo, err := checkout(ctx, s, opts)
		if err != nil {
			return nil, err
		}
		return objects.NewFileObjects(repo.Path()), nil
	default:
		return nil, fmt.Errorf("objects: unsupported scheme %s", s.Kind)
	}
}

// indexObjects opens the objects store advertised by idx, which is either an absolute
// URL or a path relative to the index.
func indexObjects(ctx context.Context, idx index.Index, opts Options) (objects.Objects, error) {
	advertised := idx.ObjectsURL()
	if u, err := url.Parse(advertised); err == nil && u.Scheme != "" && !filepath.IsAbs(advertised) {
		s, err := ParseScheme(advertised)
		if err != nil {
			return nil, fmt.Errorf("objects advertised by index: %w", err)
		}
		return openObjects(ctx, s, opts)
	}
	return idx.ObjectsFromIndex(advertised)
}

// checkout opens and updates the working tree for a git+ URL. Each URL gets its own
// directory under RepoDir.
func checkout(ctx context.Context, s Scheme, opts Options) (*git.Repo, error) {
	dir := filepath.Join(opts.RepoDir(), checksum.Sum([]byte(s.Raw)).String())
	repo, err := git.Open(ctx, git.Config{
		Remote:   s.Remote(),
		Revision: s.Revision(),
		WorkTree: dir,
		Env:      opts.GitEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("opening checkout of %s: %w", s, err)
	}
	if err := repo.Update(ctx); err != nil {
		return nil, fmt.Errorf("updating checkout of %s: %w", s, err)
	}
	return repo, nil
}
