// Package core holds the types shared by every part of the repository: package names,
// version ranges, resolution results and the error taxonomy.
package core

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/thepwagner/schemarepo/pkg/source"
)

// RequiredPackage is a package requested by a `use` declaration.
type RequiredPackage struct {
	Package Package
	Range   Range
}

// NewRequiredPackage pairs a package with a range.
func NewRequiredPackage(pkg Package, r Range) RequiredPackage {
	return RequiredPackage{Package: pkg, Range: r}
}

func (r RequiredPackage) String() string {
	if r.Range.Any() {
		return r.Package.String()
	}
	return r.Package.String() + "@" + r.Range.String()
}

// Resolved is one candidate for a RequiredPackage. Version is nil when the
// resolver does not version its results.
type Resolved struct {
	Version *semver.Version
	Source  *source.Source
}

// ResolvedByPrefix is a package discovered below a prefix.
type ResolvedByPrefix struct {
	Package Package
	Version *semver.Version
	Source  *source.Source
}

// Resolver turns required packages into sources.
type Resolver interface {
	// Resolve returns every candidate for the package, in no guaranteed order.
	// An empty result means the package is unknown to this resolver.
	Resolve(ctx context.Context, required RequiredPackage) ([]Resolved, error)

	// ResolveByPrefix returns every package whose name starts with the given segments.
	ResolveByPrefix(ctx context.Context, pkg Package) ([]ResolvedByPrefix, error)
}
