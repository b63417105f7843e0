// Package repository composes an index and an object store into a resolver that can
// also publish.
package repository

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/index"
	"github.com/thepwagner/schemarepo/pkg/objects"
	"github.com/thepwagner/schemarepo/pkg/source"
)

type Repository struct {
	Index   index.Index
	Objects objects.Objects
}

var _ core.Resolver = (*Repository)(nil)

func New(idx index.Index, objs objects.Objects) *Repository {
	return &Repository{Index: idx, Objects: objs}
}

// Publish stores src as pkg@version.
func (r *Repository) Publish(ctx context.Context, src *source.Source, pkg core.Package, version *semver.Version, force bool) error {
	log := slog.With(slog.String("package", pkg.String()), slog.String("version", version.String()))

	existing, err := r.Index.GetDeployments(ctx, pkg, version)
	if err != nil {
		return fmt.Errorf("checking existing deployments: %w", err)
	}

	b, err := src.Bytes()
	if err != nil {
		return err
	}
	sum := checksum.Sum(b)

	if len(existing) > 0 && !force {
		return &core.ConflictError{
			Package:  pkg,
			Version:  version.String(),
			Existing: existing[len(existing)-1].Object.String(),
			Proposed: sum.String(),
		}
	}

	written, err := r.Objects.PutObject(ctx, sum, bytes.NewReader(b), force)
	if err != nil {
		return fmt.Errorf("storing object: %w", err)
	}
	log.Debug("stored object", slog.String("checksum", sum.String()), slog.Bool("written", written))

	if err := r.Index.PutVersion(ctx, sum, pkg, version, force); err != nil {
		return fmt.Errorf("registering version: %w", err)
	}
	log.Info("published package", slog.String("checksum", sum.String()), slog.String("source", src.Name()))
	return nil
}

// Resolve returns the highest version of the required package, or nothing.
func (r *Repository) Resolve(ctx context.Context, required core.RequiredPackage) ([]core.Resolved, error) {
	deployments, err := r.Index.Resolve(ctx, required.Package, required.Range)
	if err != nil {
		return nil, err
	}
	if len(deployments) == 0 {
		return nil, nil
	}

	d := deployments[len(deployments)-1]
	src, err := r.fetch(ctx, required.Package, d)
	if err != nil {
		return nil, err
	}
	return []core.Resolved{{Version: d.Version, Source: src}}, nil
}

// ResolveByPrefix returns every deployment of every package below prefix.
func (r *Repository) ResolveByPrefix(ctx context.Context, prefix core.Package) ([]core.ResolvedByPrefix, error) {
	deployments, err := r.Index.ResolveByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	ret := make([]core.ResolvedByPrefix, 0, len(deployments))
	for _, pd := range deployments {
		src, err := r.fetch(ctx, pd.Package, pd.Deployment)
		if err != nil {
			return nil, err
		}
		ret = append(ret, core.ResolvedByPrefix{Package: pd.Package, Version: pd.Deployment.Version, Source: src})
	}
	return ret, nil
}

// All lists the deployments of pkg without fetching any objects.
func (r *Repository) All(ctx context.Context, pkg core.Package) ([]index.Deployment, error) {
	return r.Index.All(ctx, pkg)
}

func (r *Repository) fetch(ctx context.Context, pkg core.Package, d index.Deployment) (*source.Source, error) {
	src, err := r.Objects.GetObject(ctx, d.Object)
	if err != nil {
		return nil, fmt.Errorf("fetching %s@%s: %w", pkg, d.Version, err)
	}
	if src == nil {
		return nil, &core.InconsistentError{Package: pkg, Version: d.Version.String(), Checksum: d.Object.String()}
	}
	return src.WithReadOnly(true), nil
}
