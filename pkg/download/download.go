// Package download fetches the chosen file for every accepted mod.
//
// Downloading runs in two gated phases. First every node's download file
// reference is resolved concurrently; if any node fails, nothing is fetched,
// because a partial mod set can violate the dependency edges the resolver
// just guaranteed. Then files are streamed concurrently: bytes are hashed
// with SHA-512 while buffering and only written out once the computed digest
// matches the registry-declared one, so a corrupted or inconsistent transfer
// never reaches disk.
package download

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
	"github.com/peter2500zz/mod-auto-download/pkg/mod"
	"github.com/peter2500zz/mod-auto-download/pkg/pool"
	"github.com/peter2500zz/mod-auto-download/pkg/progress"
)

// FileOpener starts a streaming read of a file URL. *modrinth.Client
// satisfies it; tests substitute stubs.
type FileOpener interface {
	OpenFile(ctx context.Context, fileURL string) (io.ReadCloser, error)
}

// Options configures a Downloader.
type Options struct {
	Dir     string // download directory, created if absent
	Workers int    // worker pool size, 4 if < 1
}

// Downloader resolves file references and fetches verified artifacts.
type Downloader struct {
	reg    mod.Registry
	opener FileOpener
	sink   progress.Sink
	opts   Options
}

// New creates a Downloader. A nil sink defaults to a no-op.
func New(reg mod.Registry, opener FileOpener, sink progress.Sink, opts Options) *Downloader {
	if sink == nil {
		sink = progress.Noop{}
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	return &Downloader{reg: reg, opener: opener, sink: sink, opts: opts}
}

// Run executes both phases. File-reference resolution gates downloading:
// when it collects any error the download phase does not start and those
// errors are returned. Per-file integrity failures are collected without
// aborting siblings; transport failures abort everything.
func (d *Downloader) Run(ctx context.Context, mods []*mod.Mod) ([]error, error) {
	collected, err := d.ResolveFiles(ctx, mods)
	if err != nil || len(collected) > 0 {
		return collected, err
	}
	return d.DownloadAll(ctx, mods)
}

// ResolveFiles resolves the download file reference for every mod concurrently.
func (d *Downloader) ResolveFiles(ctx context.Context, mods []*mod.Mod) ([]error, error) {
	total := len(mods)
	return pool.ForEach(ctx, d.opts.Workers, mods, func(ctx context.Context, m *mod.Mod) error {
		defer func() {
			d.sink.Emit(progress.Event{Phase: progress.PhaseResolveFiles, Advanced: 1, Total: total})
		}()
		return m.ResolveFile(ctx, d.reg)
	})
}

// DownloadAll streams every mod's file concurrently, verifying content
// hashes before anything is written under the download directory.
func (d *Downloader) DownloadAll(ctx context.Context, mods []*mod.Mod) ([]error, error) {
	if err := os.MkdirAll(d.opts.Dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeContract, err, "create download directory %s", d.opts.Dir)
	}

	total := len(mods)
	return pool.ForEach(ctx, d.opts.Workers, mods, func(ctx context.Context, m *mod.Mod) error {
		if err := d.fetchOne(ctx, m); err != nil {
			return err
		}
		file, _ := m.FileRef()
		d.sink.Emit(progress.Event{Phase: progress.PhaseDownload, Advanced: 1, Total: total,
			Message: "downloaded " + file.Filename})
		return nil
	})
}

func (d *Downloader) fetchOne(ctx context.Context, m *mod.Mod) error {
	file, err := m.FileRef()
	if err != nil {
		return err
	}

	body, err := d.opener.OpenFile(ctx, file.URL)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "download %s", file.Filename)
	}
	defer body.Close()

	var buf bytes.Buffer
	hasher := sha512.New()
	if _, err := io.Copy(io.MultiWriter(&buf, hasher), body); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "download %s", file.Filename)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	want := strings.ToLower(file.Hashes.SHA512)
	if sum != want {
		id, _ := m.ID()
		return errors.NewRef(errors.ErrCodeIntegrityMismatch, id,
			"%s is corrupted: sha512 %s does not match declared %s", file.Filename, sum, want)
	}

	path := filepath.Join(d.opts.Dir, file.Filename)
	return writeAtomic(path, buf.Bytes())
}

// writeAtomic stages the payload in a temp file next to the target and
// renames it into place, so a crash mid-write never leaves a truncated jar
// under the final name.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeContract, err, "write %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeContract, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeContract, err, "write %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeContract, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeContract, err, "write %s", path)
	}
	return nil
}
