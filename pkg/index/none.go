package index

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/objects"
)

// NoIndex is the index used when repositories are disabled. It knows no packages.
type NoIndex struct{}

var _ Index = NoIndex{}

func (NoIndex) Resolve(context.Context, core.Package, core.Range) ([]Deployment, error) {
	return nil, nil
}

func (NoIndex) ResolveByPrefix(context.Context, core.Package) ([]PackageDeployment, error) {
	return nil, nil
}

func (NoIndex) All(context.Context, core.Package) ([]Deployment, error) {
	return nil, nil
}

func (NoIndex) GetDeployments(context.Context, core.Package, *semver.Version) ([]Deployment, error) {
	return nil, nil
}

func (NoIndex) PutVersion(context.Context, checksum.Checksum, core.Package, *semver.Version, bool) error {
	return fmt.Errorf("no index configured: %w", core.ErrReadOnly)
}

func (NoIndex) ObjectsURL() string {
	return ""
}

func (NoIndex) ObjectsFromIndex(string) (objects.Objects, error) {
	return nil, fmt.Errorf("no index configured")
}

// ReadOnly wraps an index and rejects publishes.
type ReadOnly struct {
	Index
}

func (r ReadOnly) PutVersion(_ context.Context, _ checksum.Checksum, pkg core.Package, version *semver.Version, _ bool) error {
	return fmt.Errorf("publishing %s@%s: %w", pkg, version, core.ErrReadOnly)
}
