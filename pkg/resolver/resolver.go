// Package resolver expands a seed list of mods into a full dependency graph.
//
// Resolution runs in gated phases, mirroring how an operator works through a
// mod list: resolve the seed projects, check version availability for the
// target game version and loader, then expand dependencies breadth-first
// level by level. Each phase fans out across a bounded worker pool and joins
// at a barrier before its aggregate result is read; domain errors are
// collected per phase while transport failures abort immediately.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/peter2500zz/mod-auto-download/pkg/graph"
	"github.com/peter2500zz/mod-auto-download/pkg/mod"
	"github.com/peter2500zz/mod-auto-download/pkg/pool"
	"github.com/peter2500zz/mod-auto-download/pkg/progress"
)

// DefaultWorkers is the worker pool size used when Options.Workers is unset.
const DefaultWorkers = 4

// Options configures a resolution run.
type Options struct {
	GameVersion   string // target game version, e.g. "1.20.1"
	Loader        string // target loader, e.g. "fabric"
	RequireClient bool   // seed mods must support the client side
	RequireServer bool   // seed mods must support the server side
	AllowOptional bool   // follow optional dependencies into the frontier
	Workers       int    // worker pool size, DefaultWorkers if < 1
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Workers < 1 {
		out.Workers = DefaultWorkers
	}
	return out
}

// Resolver drives the phases against a registry, reporting to a sink.
type Resolver struct {
	reg  mod.Registry
	sink progress.Sink
	opts Options
}

// New creates a Resolver. A nil sink defaults to a no-op.
func New(reg mod.Registry, sink progress.Sink, opts Options) *Resolver {
	if sink == nil {
		sink = progress.Noop{}
	}
	return &Resolver{reg: reg, sink: sink, opts: opts.withDefaults()}
}

// Conflict is a structural incompatibility surfaced after the graph froze:
// Declarer declares it cannot coexist with Target, while the mods in
// NeededBy genuinely depend on Target.
type Conflict struct {
	Declarer string   // title of the mod declaring the incompatibility
	Target   string   // title of the conflicting mod
	NeededBy []string // titles of mods with a required or optional edge on Target
}

// String renders the conflict in one line; the CLI renders NeededBy as a tree.
func (c Conflict) String() string {
	return fmt.Sprintf("%s is incompatible with %s", c.Target, c.Declarer)
}

// Result is the finalized output of dependency expansion.
type Result struct {
	Graph     *graph.Graph
	Mods      []*mod.Mod // accepted, version-resolved mods in graph order
	Conflicts []Conflict
	Errors    []error  // domain errors remaining after optional-chain pruning
	Notices   []string // informational removals and warnings
}

// ShouldContinue reports whether the run may proceed to download:
// only when no fatal domain error and no conflict remains.
func (r *Result) ShouldContinue() bool {
	return len(r.Errors) == 0 && len(r.Conflicts) == 0
}

// ResolveProjects resolves project metadata for every seed concurrently.
// Collected domain errors and warning notices are returned; a transport
// failure aborts and is returned as err.
func (r *Resolver) ResolveProjects(ctx context.Context, mods []*mod.Mod) (collected []error, notices []string, err error) {
	total := len(mods)
	req := mod.Requirements{Client: r.opts.RequireClient, Server: r.opts.RequireServer}

	var mu sync.Mutex
	collected, err = pool.ForEach(ctx, r.opts.Workers, mods, func(ctx context.Context, m *mod.Mod) error {
		r.sink.Emit(progress.Event{Phase: progress.PhaseResolveMods, Total: total,
			Message: "resolving " + m.Slug()})

		ns, rerr := m.ResolveProject(ctx, r.reg, req)
		mu.Lock()
		notices = append(notices, ns...)
		mu.Unlock()

		msg := "resolved " + m.Slug()
		if t, terr := m.Title(); terr == nil {
			msg = "resolved " + t
		}
		r.sink.Emit(progress.Event{Phase: progress.PhaseResolveMods, Advanced: 1, Total: total, Message: msg})
		return rerr
	})
	return collected, notices, err
}

// ResolveVersions chooses a version per seed for the target game version and
// loader, concurrently. Seeds that failed project resolution are skipped
// here; their errors were already collected by the previous phase.
func (r *Resolver) ResolveVersions(ctx context.Context, mods []*mod.Mod) (collected []error, err error) {
	total := len(mods)
	return pool.ForEach(ctx, r.opts.Workers, mods, func(ctx context.Context, m *mod.Mod) error {
		defer func() {
			r.sink.Emit(progress.Event{Phase: progress.PhaseResolveVersion, Advanced: 1, Total: total})
		}()
		if !m.ProjectResolved() {
			return nil
		}
		if rerr := m.ResolveVersion(ctx, r.reg, r.opts.GameVersion, r.opts.Loader); rerr != nil {
			return rerr
		}
		v, _ := m.Version()
		t, _ := m.Title()
		r.sink.Emit(progress.Event{Phase: progress.PhaseResolveVersion, Total: total,
			Message: fmt.Sprintf("found version: %s %s", t, v.VersionNumber)})
		return nil
	})
}

// titleOf returns the node title for an id, falling back to the id itself.
func titleOf(g *graph.Graph, id string) string {
	if n, ok := g.Node(id); ok && n.Title != "" {
		return n.Title
	}
	return id
}
