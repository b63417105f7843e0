package resolver

import (
	"context"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/thepwagner/schemarepo/pkg/core"
)

// Chain consults resolvers in order.
type Chain struct {
	Resolvers []core.Resolver

	// Published pins packages, keyed by package name, to a version. A pinned package
	// resolves against exactly that version even when a local copy exists.
	Published map[string]*semver.Version
}

var _ core.Resolver = (*Chain)(nil)

func NewChain(resolvers ...core.Resolver) *Chain {
	return &Chain{Resolvers: resolvers}
}

// Pin records pkg as published at version.
func (c *Chain) Pin(pkg core.Package, version *semver.Version) {
	if c.Published == nil {
		c.Published = map[string]*semver.Version{}
	}
	c.Published[pkg.String()] = version
}

// Resolve returns the results of the first resolver that finds anything.
func (c *Chain) Resolve(ctx context.Context, required core.RequiredPackage) ([]core.Resolved, error) {
	if v, ok := c.Published[required.Package.String()]; ok {
		slog.Debug("package pinned to published version",
			slog.String("package", required.Package.String()),
			slog.String("version", v.String()),
		)
		required = core.NewRequiredPackage(required.Package, core.ExactRange(v))
	}

	for _, r := range c.Resolvers {
		resolved, err := r.Resolve(ctx, required)
		if err != nil {
			return nil, err
		}
		if len(resolved) > 0 {
			return resolved, nil
		}
	}
	return nil, nil
}

// ResolveByPrefix returns the results of every resolver.
func (c *Chain) ResolveByPrefix(ctx context.Context, prefix core.Package) ([]core.ResolvedByPrefix, error) {
	var ret []core.ResolvedByPrefix
	for _, r := range c.Resolvers {
		resolved, err := r.ResolveByPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		ret = append(ret, resolved...)
	}
	return ret, nil
}
