package index

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/git"
	"github.com/thepwagner/schemarepo/pkg/objects"
)

// GitIndex is a FileIndex inside a git working tree. Every publish becomes a commit.
type GitIndex struct {
	*FileIndex
	client git.Client
	remote *url.URL
}

var _ Index = (*GitIndex)(nil)

// NewGitIndex opens the index checked out by client. remote is the URL the working
// tree tracks; it decides where co-located objects are read from.
func NewGitIndex(client git.Client, remote *url.URL) (*GitIndex, error) {
	fi, err := NewFileIndex(client.Path())
	if err != nil {
		return nil, err
	}
	return &GitIndex{FileIndex: fi, client: client, remote: remote}, nil
}

func (g *GitIndex) PutVersion(ctx context.Context, c checksum.Checksum, pkg core.Package, version *semver.Version, force bool) error {
	p, changed, err := g.FileIndex.putVersion(c, pkg, version, force)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	rel, err := filepath.Rel(g.client.Path(), p)
	if err != nil {
		return fmt.Errorf("locating metadata in work tree: %w", err)
	}
	if err := g.client.Add(ctx, filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("staging metadata: %w", err)
	}
	msg := fmt.Sprintf("publish %s@%s", pkg, version)
	if err := g.client.Commit(ctx, msg); err != nil {
		return fmt.Errorf("committing metadata: %w", err)
	}
	slog.Info("committed publish", slog.String("package", pkg.String()), slog.String("version", version.String()))
	return nil
}

// ObjectsFromIndex reads objects over HTTP when the tracked remote is an http(s) URL,
// and from the working tree otherwise.
func (g *GitIndex) ObjectsFromIndex(relative string) (objects.Objects, error) {
	if g.remote != nil && (g.remote.Scheme == "http" || g.remote.Scheme == "https") {
		return objects.NewHTTPObjects(*g.remote.JoinPath(relative)), nil
	}
	return g.FileIndex.ObjectsFromIndex(relative)
}
