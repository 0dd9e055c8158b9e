package mod

import (
	"context"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
)

// Dependency is a typed reference discovered on a resolved version.
// The registry is heterogeneous: some descriptors pin an exact version id,
// others only name a project and let the resolver pick the best match.
type Dependency struct {
	Type      modrinth.DepType
	FileName  string // declared filename, often empty
	ProjectID string // set when the descriptor names a project
	VersionID string // set when the descriptor pins a version
}

// TargetID returns the id the dependency graph keys this target by: the
// project id when known, otherwise the pinned version id until resolution
// reveals the project behind it.
func (d Dependency) TargetID() string {
	if d.ProjectID != "" {
		return d.ProjectID
	}
	return d.VersionID
}

// Ref returns the resolution strategy for this dependency's target.
func (d Dependency) Ref() Ref {
	if d.VersionID != "" {
		return ByVersion(d.VersionID)
	}
	return ByProject(d.ProjectID)
}

// Ref resolves a dependency target into a Mod. Implementations return the
// partially resolved Mod alongside a domain error when the project exists
// but no usable version does, so the caller can still record the node.
type Ref interface {
	// Resolve fetches the target and chooses a version for the given
	// game version and loader. Side requirements are not applied to
	// dependencies.
	Resolve(ctx context.Context, reg Registry, gameVersion, loader string) (*Mod, error)
}

// ByProject resolves a target by project id: fetch the project, then pick
// the best matching version the usual way.
type ByProject string

// Resolve implements Ref.
func (r ByProject) Resolve(ctx context.Context, reg Registry, gameVersion, loader string) (*Mod, error) {
	m, err := New(string(r))
	if err != nil {
		return nil, err
	}
	if _, err := m.ResolveProject(ctx, reg, Requirements{}); err != nil {
		return nil, err
	}
	if err := m.ResolveVersion(ctx, reg, gameVersion, loader); err != nil {
		return m, err
	}
	return m, nil
}

// ByVersion resolves a target pinned to an exact version id: fetch the
// version detail, then the project it belongs to. The pinned version is
// adopted directly instead of re-running best-match selection, but it must
// still support the target game version and loader.
type ByVersion string

// Resolve implements Ref.
func (r ByVersion) Resolve(ctx context.Context, reg Registry, gameVersion, loader string) (*Mod, error) {
	v, err := reg.Version(ctx, string(r))
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NewRef(errors.ErrCodeModNotFound, string(r),
				"pinned version %s was not found", string(r))
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "registry request failed")
	}

	m, err := New(v.ProjectID)
	if err != nil {
		return nil, err
	}
	if _, err := m.ResolveProject(ctx, reg, Requirements{}); err != nil {
		return nil, err
	}

	if !v.Supports(gameVersion, loader) {
		return m, errors.NewRef(errors.ErrCodeNoMatchingVersion, v.ProjectID,
			"mod %s pins version %s, which does not work on %s with the %s loader",
			m.project.Title, v.VersionNumber, gameVersion, loader)
	}
	m.version = v
	return m, nil
}
