package download

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
	"github.com/peter2500zz/mod-auto-download/pkg/mod"
	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
)

// fakeRegistry hands out one version per project with the given files.
type fakeRegistry struct {
	projects map[string]*modrinth.Project
	details  map[string]*modrinth.Version
}

func (f *fakeRegistry) Project(_ context.Context, idOrSlug string) (*modrinth.Project, error) {
	if p, ok := f.projects[idOrSlug]; ok {
		return p, nil
	}
	return nil, modrinth.ErrNotFound
}

func (f *fakeRegistry) ProjectVersions(_ context.Context, id, _, _ string) ([]modrinth.Version, error) {
	if v, ok := f.details["v-"+id]; ok {
		return []modrinth.Version{*v}, nil
	}
	return nil, modrinth.ErrNotFound
}

func (f *fakeRegistry) Version(_ context.Context, id string) (*modrinth.Version, error) {
	if v, ok := f.details[id]; ok {
		return v, nil
	}
	return nil, modrinth.ErrNotFound
}

// fakeOpener serves file bodies by URL.
type fakeOpener struct {
	bodies map[string][]byte
}

func (f *fakeOpener) OpenFile(_ context.Context, fileURL string) (io.ReadCloser, error) {
	if b, ok := f.bodies[fileURL]; ok {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return nil, fmt.Errorf("no route to host")
}

func sha512hex(b []byte) string {
	sum := sha512.Sum512(b)
	return hex.EncodeToString(sum[:])
}

// fixture builds one fully version-resolved mod whose file carries the
// declared digest, and the registry/opener pair serving it.
func fixture(t *testing.T, slug string, content []byte, declaredSHA512 string) (*mod.Mod, *fakeRegistry, *fakeOpener) {
	t.Helper()
	url := "https://cdn/" + slug + ".jar"
	reg := &fakeRegistry{
		projects: map[string]*modrinth.Project{
			slug: {ID: slug, Slug: slug, Title: slug},
		},
		details: map[string]*modrinth.Version{
			"v-" + slug: {
				ID: "v-" + slug, ProjectID: slug, VersionNumber: "1.0.0",
				GameVersions: []string{"1.20.1"}, Loaders: []string{"fabric"},
				Files: []modrinth.File{{
					URL: url, Filename: slug + ".jar",
					Hashes: modrinth.FileHashes{SHA512: declaredSHA512},
				}},
			},
		},
	}
	opener := &fakeOpener{bodies: map[string][]byte{url: content}}

	m, err := mod.New(slug)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ResolveProject(context.Background(), reg, mod.Requirements{}); err != nil {
		t.Fatal(err)
	}
	if err := m.ResolveVersion(context.Background(), reg, "1.20.1", "fabric"); err != nil {
		t.Fatal(err)
	}
	return m, reg, opener
}

func TestRunWritesVerifiedFile(t *testing.T) {
	content := []byte("jar bytes for sodium")
	m, reg, opener := fixture(t, "sodium", content, sha512hex(content))

	dir := t.TempDir()
	d := New(reg, opener, nil, Options{Dir: dir, Workers: 2})

	collected, err := d.Run(context.Background(), []*mod.Mod{m})
	if err != nil {
		t.Fatalf("Run() fatal: %v", err)
	}
	if len(collected) != 0 {
		t.Fatalf("Run() collected: %v", collected)
	}

	got, err := os.ReadFile(filepath.Join(dir, "sodium.jar"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("written file differs from downloaded bytes")
	}

	// The staging file used for the atomic rename must not survive.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "sodium.jar" {
		t.Errorf("download dir = %v, want only sodium.jar", entries)
	}
}

func TestRunAcceptsUppercaseDeclaredDigest(t *testing.T) {
	content := []byte("mixed case digest")
	m, reg, opener := fixture(t, "modmenu", content, strings.ToUpper(sha512hex(content)))

	d := New(reg, opener, nil, Options{Dir: t.TempDir(), Workers: 1})
	collected, err := d.Run(context.Background(), []*mod.Mod{m})
	if err != nil || len(collected) != 0 {
		t.Fatalf("Run() = %v, %v", collected, err)
	}
}

func TestRunRejectsCorruptedStream(t *testing.T) {
	content := []byte("actual bytes")
	m, reg, opener := fixture(t, "sodium", content, sha512hex([]byte("declared for other bytes")))

	dir := t.TempDir()
	d := New(reg, opener, nil, Options{Dir: dir, Workers: 1})

	collected, err := d.Run(context.Background(), []*mod.Mod{m})
	if err != nil {
		t.Fatalf("Run() fatal: %v", err)
	}
	if len(collected) != 1 || !errors.Is(collected[0], errors.ErrCodeIntegrityMismatch) {
		t.Fatalf("Run() collected = %v, want one INTEGRITY_MISMATCH", collected)
	}
	if _, err := os.Stat(filepath.Join(dir, "sodium.jar")); !os.IsNotExist(err) {
		t.Error("corrupted download must not reach disk")
	}
}

func TestRunGatesOnFileResolution(t *testing.T) {
	content := []byte("bytes")
	okMod, reg, opener := fixture(t, "sodium", content, sha512hex(content))

	// A second mod whose version detail has no files blocks the whole batch.
	reg.projects["nofile"] = &modrinth.Project{ID: "nofile", Slug: "nofile", Title: "nofile"}
	reg.details["v-nofile"] = &modrinth.Version{
		ID: "v-nofile", ProjectID: "nofile",
		GameVersions: []string{"1.20.1"}, Loaders: []string{"fabric"},
	}
	badMod, err := mod.New("nofile")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := badMod.ResolveProject(context.Background(), reg, mod.Requirements{}); err != nil {
		t.Fatal(err)
	}
	if err := badMod.ResolveVersion(context.Background(), reg, "1.20.1", "fabric"); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	d := New(reg, opener, nil, Options{Dir: dir, Workers: 2})

	collected, fatal := d.Run(context.Background(), []*mod.Mod{okMod, badMod})
	if fatal != nil {
		t.Fatalf("Run() fatal: %v", fatal)
	}
	if len(collected) != 1 || !errors.Is(collected[0], errors.ErrCodeNoFile) {
		t.Fatalf("Run() collected = %v, want one NO_FILE", collected)
	}
	if _, err := os.Stat(filepath.Join(dir, "sodium.jar")); !os.IsNotExist(err) {
		t.Error("nothing may be downloaded when any file reference is unresolved")
	}
}

func TestDownloadOpenerFailureIsFatal(t *testing.T) {
	content := []byte("bytes")
	m, reg, _ := fixture(t, "sodium", content, sha512hex(content))

	d := New(reg, &fakeOpener{}, nil, Options{Dir: t.TempDir(), Workers: 1})
	_, fatal := d.Run(context.Background(), []*mod.Mod{m})
	if !errors.Is(fatal, errors.ErrCodeNetwork) {
		t.Fatalf("Run() fatal = %v, want NETWORK_ERROR", fatal)
	}
}
