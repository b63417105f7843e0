// Package index stores, per package, which checksum each published version maps to.
package index

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/objects"
)

// Deployment is a published version of one package.
type Deployment struct {
	Version *semver.Version
	Object  checksum.Checksum
}

// PackageDeployment is a Deployment together with the package it belongs to.
type PackageDeployment struct {
	Package    core.Package
	Deployment Deployment
}

// Index is a metadata store mapping packages and versions to checksums.
type Index interface {
	// Resolve returns the deployments of pkg matching r, ascending by version.
	Resolve(ctx context.Context, pkg core.Package, r core.Range) ([]Deployment, error)

	// ResolveByPrefix returns the deployments of every package below prefix,
	// prefix itself included.
	ResolveByPrefix(ctx context.Context, prefix core.Package) ([]PackageDeployment, error)

	// All returns every deployment of pkg, ascending by version.
	All(ctx context.Context, pkg core.Package) ([]Deployment, error)

	// GetDeployments returns the deployments of exactly version.
	GetDeployments(ctx context.Context, pkg core.Package, version *semver.Version) ([]Deployment, error)

	// PutVersion records c as pkg@version. An existing entry for the same version with a
	// different checksum is a conflict unless force is set.
	PutVersion(ctx context.Context, c checksum.Checksum, pkg core.Package, version *semver.Version, force bool) error

	// ObjectsURL is the objects location advertised by the index, possibly relative.
	ObjectsURL() string

	// ObjectsFromIndex builds an object store at a path relative to the index.
	ObjectsFromIndex(relative string) (objects.Objects, error)
}
