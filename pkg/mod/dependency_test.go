package mod

import (
	"context"
	"fmt"
	"testing"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
)

// erroringRegistry fails every call with a transport-level error.
type erroringRegistry struct{}

func (erroringRegistry) Project(context.Context, string) (*modrinth.Project, error) {
	return nil, fmt.Errorf("connection reset")
}

func (erroringRegistry) ProjectVersions(context.Context, string, string, string) ([]modrinth.Version, error) {
	return nil, fmt.Errorf("connection reset")
}

func (erroringRegistry) Version(context.Context, string) (*modrinth.Version, error) {
	return nil, fmt.Errorf("connection reset")
}

func TestDependencyRefSelection(t *testing.T) {
	byProject := Dependency{ProjectID: "P1"}
	if _, ok := byProject.Ref().(ByProject); !ok {
		t.Errorf("Ref() = %T, want ByProject", byProject.Ref())
	}

	// A pinned version wins even when the project is also known.
	pinned := Dependency{ProjectID: "P1", VersionID: "v1"}
	if _, ok := pinned.Ref().(ByVersion); !ok {
		t.Errorf("Ref() = %T, want ByVersion", pinned.Ref())
	}
}

func TestByProjectResolve(t *testing.T) {
	reg := &stubRegistry{
		projects: map[string]*modrinth.Project{"fab-api": {ID: "fab-api", Title: "Fabric API"}},
		versions: map[string][]modrinth.Version{
			"fab-api": {{ID: "v5", VersionNumber: "0.92.0", GameVersions: []string{"1.20.1"}, Loaders: []string{"fabric"}}},
		},
	}

	m, err := ByProject("fab-api").Resolve(context.Background(), reg, "1.20.1", "fabric")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !m.VersionResolved() {
		t.Fatal("expected a resolved version")
	}
	v, _ := m.Version()
	if v.ID != "v5" {
		t.Errorf("version = %s, want v5", v.ID)
	}
}

func TestByProjectResolvePartialOnVersionFailure(t *testing.T) {
	reg := &stubRegistry{
		projects: map[string]*modrinth.Project{"fab-api": {ID: "fab-api", Title: "Fabric API"}},
		versions: map[string][]modrinth.Version{"fab-api": {}},
	}

	m, err := ByProject("fab-api").Resolve(context.Background(), reg, "1.20.1", "fabric")
	if !errors.Is(err, errors.ErrCodeNoMatchingVersion) {
		t.Fatalf("Resolve() = %v, want NO_MATCHING_VERSION", err)
	}
	// The partially resolved mod still carries project metadata for the graph.
	if m == nil || !m.ProjectResolved() {
		t.Error("expected a partial mod with resolved project")
	}
}

func TestByVersionResolveAdoptsPin(t *testing.T) {
	reg := &stubRegistry{
		projects: map[string]*modrinth.Project{"indium": {ID: "indium", Title: "Indium"}},
		details: map[string]*modrinth.Version{
			"v9": {ID: "v9", ProjectID: "indium", VersionNumber: "1.0.30",
				GameVersions: []string{"1.20.1"}, Loaders: []string{"fabric"}},
		},
	}

	m, err := ByVersion("v9").Resolve(context.Background(), reg, "1.20.1", "fabric")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	v, _ := m.Version()
	if v.ID != "v9" {
		t.Errorf("version = %s, want the pinned v9", v.ID)
	}
}

func TestByVersionResolveRejectsIncompatiblePin(t *testing.T) {
	reg := &stubRegistry{
		projects: map[string]*modrinth.Project{"indium": {ID: "indium", Title: "Indium"}},
		details: map[string]*modrinth.Version{
			"v9": {ID: "v9", ProjectID: "indium", VersionNumber: "1.0.30",
				GameVersions: []string{"1.19"}, Loaders: []string{"fabric"}},
		},
	}

	m, err := ByVersion("v9").Resolve(context.Background(), reg, "1.20.1", "fabric")
	if !errors.Is(err, errors.ErrCodeNoMatchingVersion) {
		t.Fatalf("Resolve() = %v, want NO_MATCHING_VERSION", err)
	}
	if m == nil || !m.ProjectResolved() || m.VersionResolved() {
		t.Error("expected project-only partial mod")
	}
}

func TestByVersionResolveMissingPin(t *testing.T) {
	_, err := ByVersion("gone").Resolve(context.Background(), &stubRegistry{}, "1.20.1", "fabric")
	if !errors.Is(err, errors.ErrCodeModNotFound) {
		t.Errorf("Resolve() = %v, want MOD_NOT_FOUND", err)
	}
	if errors.GetRef(err) != "gone" {
		t.Errorf("error ref = %q, want the version id", errors.GetRef(err))
	}
}
