// Package mod models one package's resolution lifecycle against the registry.
//
// A Mod moves through four stages: constructed (slug validated), project
// resolved, version resolved, file resolved. Each stage is driven by exactly
// one caller at a time; Mod instances are never shared between in-flight
// workers. Accessors that depend on a later stage return a contract
// violation error instead of panicking when called early.
package mod

import (
	"context"
	stderrors "errors"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
)

// Registry is the slice of the Modrinth API the resolution stages need.
// *modrinth.Client satisfies it; tests substitute stubs.
type Registry interface {
	Project(ctx context.Context, idOrSlug string) (*modrinth.Project, error)
	ProjectVersions(ctx context.Context, id, gameVersion, loader string) ([]modrinth.Version, error)
	Version(ctx context.Context, id string) (*modrinth.Version, error)
}

// Requirements states which sides of the game the mod must support.
// Dependencies are resolved without side requirements, matching how the
// registry treats them.
type Requirements struct {
	Client bool
	Server bool
}

// Mod is one package working through resolution.
type Mod struct {
	slug    string
	project *modrinth.Project
	version *modrinth.Version
	file    *modrinth.File
}

// New constructs a Mod from user input: a bare slug, a project id, or a
// full mod page URL. The slug grammar is checked here, synchronously;
// a malformed identifier fails fast with INVALID_SLUG.
func New(raw string) (*Mod, error) {
	slug := modrinth.SlugFromURL(raw)
	if !modrinth.ValidSlug(slug) {
		return nil, errors.NewRef(errors.ErrCodeInvalidSlug, slug, "%q is not a valid mod slug", slug)
	}
	return &Mod{slug: slug}, nil
}

// Slug returns the identifier the Mod was constructed from.
func (m *Mod) Slug() string { return m.slug }

// ProjectResolved reports whether project metadata has been fetched.
func (m *Mod) ProjectResolved() bool { return m.project != nil }

// VersionResolved reports whether a version has been chosen.
func (m *Mod) VersionResolved() bool { return m.version != nil }

// FileResolved reports whether a download target has been chosen.
func (m *Mod) FileResolved() bool { return m.file != nil }

// ID returns the stable project id. Valid only after project resolution.
func (m *Mod) ID() (string, error) {
	if m.project == nil {
		return "", m.notInitialized()
	}
	return m.project.ID, nil
}

// Title returns the project's display title. Valid only after project resolution.
func (m *Mod) Title() (string, error) {
	if m.project == nil {
		return "", m.notInitialized()
	}
	return m.project.Title, nil
}

// Project returns the resolved project record. Valid only after project resolution.
func (m *Mod) Project() (*modrinth.Project, error) {
	if m.project == nil {
		return nil, m.notInitialized()
	}
	return m.project, nil
}

// Version returns the chosen version. Valid only after version resolution.
func (m *Mod) Version() (*modrinth.Version, error) {
	if m.version == nil {
		return nil, errors.NewRef(errors.ErrCodeContract, m.slug, "mod %s has no resolved version", m.slug)
	}
	return m.version, nil
}

// FileRef returns the chosen download file. Valid only after file resolution.
func (m *Mod) FileRef() (*modrinth.File, error) {
	if m.file == nil {
		return nil, errors.NewRef(errors.ErrCodeContract, m.slug, "mod %s has no resolved file", m.slug)
	}
	return m.file, nil
}

func (m *Mod) notInitialized() error {
	return errors.NewRef(errors.ErrCodeContract, m.slug, "mod %s is not initialized", m.slug)
}

// ResolveProject fetches project metadata by slug or id and checks the side
// requirements. A 404 becomes MOD_NOT_FOUND; requiring a side the project
// declares unsupported becomes SIDE_UNSUPPORTED (treated like not-found by
// the resolver). A side declared unknown does not fail but is reported in
// the returned notices.
func (m *Mod) ResolveProject(ctx context.Context, reg Registry, req Requirements) (notices []string, err error) {
	p, err := reg.Project(ctx, m.slug)
	if err != nil {
		return nil, m.mapRegistryErr(err, errors.ErrCodeModNotFound, "mod %s was not found", m.slug)
	}
	m.project = p

	check := func(need bool, side modrinth.Side, name string) error {
		if !need {
			return nil
		}
		switch side {
		case modrinth.SideUnsupported:
			return errors.NewRef(errors.ErrCodeSideUnsupported, p.ID,
				"mod %s does not support the %s side", p.Title, name)
		case modrinth.SideRequired, modrinth.SideOptional:
			return nil
		default:
			notices = append(notices, "mod "+p.Title+" reports unknown "+name+"-side support")
			return nil
		}
	}

	if err := check(req.Client, p.ClientSide, "client"); err != nil {
		return notices, err
	}
	if err := check(req.Server, p.ServerSide, "server"); err != nil {
		return notices, err
	}
	return notices, nil
}

// ResolveVersion picks the newest release matching the target game version
// and loader. The registry returns the list newest-first and the first local
// match wins, so "first" means "most recent compatible release".
func (m *Mod) ResolveVersion(ctx context.Context, reg Registry, gameVersion, loader string) error {
	if m.project == nil {
		return m.notInitialized()
	}

	versions, err := reg.ProjectVersions(ctx, m.project.ID, gameVersion, loader)
	if err != nil {
		return m.mapRegistryErr(err, errors.ErrCodeNoMatchingVersion,
			"mod %s has no release for %s with the %s loader", m.project.Title, gameVersion, loader)
	}

	for i := range versions {
		if versions[i].Supports(gameVersion, loader) {
			m.version = &versions[i]
			return nil
		}
	}
	return errors.NewRef(errors.ErrCodeNoMatchingVersion, m.project.ID,
		"mod %s has no release for %s with the %s loader", m.project.Title, gameVersion, loader)
}

// ResolveFile fetches the full version detail and picks the first file
// entry as the download target. Multi-file versions are rare and the
// registry's convention is that the first entry is the primary artifact.
func (m *Mod) ResolveFile(ctx context.Context, reg Registry) error {
	if m.version == nil {
		return errors.NewRef(errors.ErrCodeContract, m.slug, "mod %s has no resolved version", m.slug)
	}

	detail, err := reg.Version(ctx, m.version.ID)
	if err != nil {
		return m.mapRegistryErr(err, errors.ErrCodeNoFile,
			"version %s of mod %s was not found", m.version.ID, m.project.Title)
	}
	if len(detail.Files) == 0 {
		return errors.NewRef(errors.ErrCodeNoFile, m.project.ID,
			"mod %s %s has no downloadable file", m.project.Title, m.version.VersionNumber)
	}
	m.file = &detail.Files[0]
	return nil
}

// Dependencies maps the chosen version's raw descriptors into typed
// dependencies. Valid only after version resolution. Descriptors without a
// usable target reference are dropped silently; the registry contains
// opaque annotation entries that point at nothing resolvable.
func (m *Mod) Dependencies() ([]Dependency, error) {
	if m.version == nil {
		return nil, errors.NewRef(errors.ErrCodeContract, m.slug, "mod %s has no resolved version", m.slug)
	}

	var deps []Dependency
	for _, raw := range m.version.Dependencies {
		if raw.ProjectID == "" && raw.VersionID == "" {
			continue
		}
		deps = append(deps, Dependency{
			Type:      raw.DependencyType,
			FileName:  raw.FileName,
			ProjectID: raw.ProjectID,
			VersionID: raw.VersionID,
		})
	}
	return deps, nil
}

// mapRegistryErr translates client sentinels into coded domain errors.
// Anything that is not a 404 stays a fatal network error.
func (m *Mod) mapRegistryErr(err error, code errors.Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		ref := m.slug
		if m.project != nil {
			ref = m.project.ID
		}
		return errors.NewRef(code, ref, format, args...)
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "registry request failed")
}

func isNotFound(err error) bool {
	return stderrors.Is(err, modrinth.ErrNotFound)
}
