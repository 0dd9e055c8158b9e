package resolver

import (
	"context"
	"sync"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
	"github.com/peter2500zz/mod-auto-download/pkg/graph"
	"github.com/peter2500zz/mod-auto-download/pkg/mod"
	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
	"github.com/peter2500zz/mod-auto-download/pkg/pool"
	"github.com/peter2500zz/mod-auto-download/pkg/progress"
)

// queuedDep is one dependency target scheduled for resolution this level.
type queuedDep struct {
	dep      mod.Dependency
	parentID string
}

// depResult pairs a queued target with its resolution outcome.
type depResult struct {
	q   queuedDep
	mod *mod.Mod
	err error
}

// pendingEdge defers an edge whose source id is unknown until a pinned
// version resolves and reveals its project.
type pendingEdge struct {
	parentID string
	depType  modrinth.DepType
}

// ExpandDependencies grows the seed set into the full dependency graph by
// breadth-first frontier expansion. Each level resolves the dependencies
// discovered by the previous level concurrently, then merges results at a
// barrier before the next level starts; dedup-by-id correctness depends on
// that ordering. The loop terminates because every target id enters the
// frontier at most once.
//
// Seeds must have passed project and version resolution. The returned
// Result carries the frozen graph, the accepted mod set, conflicts, and the
// domain errors remaining after optional-chain pruning.
func (r *Resolver) ExpandDependencies(ctx context.Context, seeds []*mod.Mod) (*Result, error) {
	g := graph.New()
	var (
		errs     []error
		notices  []string
		accepted []*mod.Mod
		frontier []*mod.Mod

		seedIDs = make(map[string]bool)
		// version-id targets queued so far, and the pinned edges waiting on them
		seenVersions = make(map[string]bool)
		verProject   = make(map[string]string)
		verPending   = make(map[string][]pendingEdge)
	)

	for _, m := range seeds {
		id, err := m.ID()
		if err != nil {
			return nil, err
		}
		if g.Has(id) {
			notices = append(notices, "duplicate seed entry for "+m.Slug())
			continue
		}
		if err := g.AddNode(graph.Node{ID: id}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeContract, err, "seed node %s", id)
		}
		seedIDs[id] = true
		frontier = append(frontier, m)
	}

	for len(frontier) > 0 {
		queue, err := r.examineLevel(g, frontier, &accepted, seenVersions, verProject, verPending)
		if err != nil {
			return nil, err
		}

		results, fatal := r.resolveLevel(ctx, queue)
		if fatal != nil {
			return nil, fatal
		}

		frontier = r.mergeLevel(g, results, &errs, verProject, verPending)
	}

	r.finalize(g, seedIDs)
	errs = pruneOptionalChains(g, errs, &notices)
	conflicts := detectConflicts(g)

	return &Result{
		Graph:     g,
		Mods:      accepted,
		Conflicts: conflicts,
		Errors:    errs,
		Notices:   notices,
	}, nil
}

// examineLevel records nodes and edges for the current frontier and collects
// the dependency targets the next resolve phase must fetch. Runs between
// barriers, single-goroutine, so it mutates the graph without locking.
func (r *Resolver) examineLevel(
	g *graph.Graph,
	frontier []*mod.Mod,
	accepted *[]*mod.Mod,
	seenVersions map[string]bool,
	verProject map[string]string,
	verPending map[string][]pendingEdge,
) ([]queuedDep, error) {
	var queue []queuedDep

	for _, m := range frontier {
		id, err := m.ID()
		if err != nil {
			return nil, err
		}
		p, _ := m.Project()
		node, _ := g.Node(id)
		node.Title = p.Title
		node.Slug = p.Slug
		node.Href = p.PageURL()

		if !m.VersionResolved() {
			// No usable version: keep the node so incompatibility checks
			// can still see it, but it contributes no dependencies.
			node.Resolved = false
			node.Category = graph.CategoryFailed
			continue
		}

		v, _ := m.Version()
		node.Resolved = true
		node.Version = v.ID
		*accepted = append(*accepted, m)

		deps, err := m.Dependencies()
		if err != nil {
			return nil, err
		}

		for _, dep := range deps {
			key := dep.TargetID()
			exists := g.Has(key) || seenVersions[key]

			incompatible := dep.Type == modrinth.DepIncompatible
			optionalDropped := !r.opts.AllowOptional && dep.Type == modrinth.DepOptional
			// A conflicting or unwanted-optional target is only worth an
			// edge when something already drew it into the graph.
			if (incompatible || optionalDropped) && !exists {
				continue
			}

			if dep.ProjectID != "" {
				if !g.Has(dep.ProjectID) {
					if err := g.AddNode(graph.Node{ID: dep.ProjectID}); err != nil {
						return nil, errors.Wrap(errors.ErrCodeContract, err, "node %s", dep.ProjectID)
					}
					queue = append(queue, queuedDep{dep: dep, parentID: id})
				}
				if err := g.AddEdge(graph.Edge{From: dep.ProjectID, To: id, Type: dep.Type}); err != nil {
					return nil, errors.Wrap(errors.ErrCodeContract, err, "edge %s -> %s", dep.ProjectID, id)
				}
				continue
			}

			// Version-pinned target with no project id: the edge source is
			// unknown until resolution reveals the project behind the pin.
			if pid, ok := verProject[dep.VersionID]; ok {
				if err := g.AddEdge(graph.Edge{From: pid, To: id, Type: dep.Type}); err != nil {
					return nil, errors.Wrap(errors.ErrCodeContract, err, "edge %s -> %s", pid, id)
				}
				continue
			}
			verPending[dep.VersionID] = append(verPending[dep.VersionID], pendingEdge{parentID: id, depType: dep.Type})
			if !seenVersions[dep.VersionID] {
				seenVersions[dep.VersionID] = true
				queue = append(queue, queuedDep{dep: dep, parentID: id})
			}
		}
	}
	return queue, nil
}

// resolveLevel fetches every queued target concurrently and joins at the
// phase barrier. Only fatal errors are returned; domain errors travel with
// their result for the merge step to attribute.
func (r *Resolver) resolveLevel(ctx context.Context, queue []queuedDep) ([]depResult, error) {
	var (
		mu      sync.Mutex
		results []depResult
	)

	_, fatal := pool.ForEach(ctx, r.opts.Workers, queue, func(ctx context.Context, q queuedDep) error {
		m, err := q.dep.Ref().Resolve(ctx, r.reg, r.opts.GameVersion, r.opts.Loader)

		mu.Lock()
		results = append(results, depResult{q: q, mod: m, err: err})
		mu.Unlock()

		msg := "resolved " + q.dep.TargetID()
		if m != nil && m.VersionResolved() {
			t, _ := m.Title()
			v, _ := m.Version()
			msg = "resolved " + t + " " + v.VersionNumber
		}
		r.sink.Emit(progress.Event{Phase: progress.PhaseResolveDeps, Advanced: 1,
			Total: progress.TotalUnknown, Message: msg})
		return err
	})
	return results, fatal
}

// mergeLevel folds the level's resolution results into the graph and builds
// the next frontier. Runs after the barrier, single-goroutine.
func (r *Resolver) mergeLevel(
	g *graph.Graph,
	results []depResult,
	errs *[]error,
	verProject map[string]string,
	verPending map[string][]pendingEdge,
) []*mod.Mod {
	var next []*mod.Mod

	for _, res := range results {
		if res.err != nil {
			*errs = append(*errs, res.err)
		}

		if res.q.dep.ProjectID != "" {
			node, _ := g.Node(res.q.dep.ProjectID)
			if res.mod == nil || !res.mod.ProjectResolved() {
				// Even the project lookup failed; the id is all we have.
				node.Title = res.q.dep.ProjectID
				node.Resolved = false
				node.Category = graph.CategoryFailed
				continue
			}
			if pid, _ := res.mod.ID(); pid != res.q.dep.ProjectID {
				// The descriptor names one project but pins a version
				// belonging to another. The node is keyed by the declared
				// id, so the resolved mod cannot enter the frontier.
				node.Title = res.q.dep.ProjectID
				node.Resolved = false
				node.Category = graph.CategoryFailed
				*errs = append(*errs, errors.NewRef(errors.ErrCodeContract, res.q.dep.ProjectID,
					"dependency of %s declares project %s but pins a version of project %s",
					titleOf(g, res.q.parentID), res.q.dep.ProjectID, pid))
				continue
			}
			// The next level's examine step fills the node and marks
			// version failures.
			next = append(next, res.mod)
			continue
		}

		vid := res.q.dep.VersionID
		if res.mod != nil && res.mod.ProjectResolved() {
			pid, _ := res.mod.ID()
			verProject[vid] = pid
			if !g.Has(pid) {
				_ = g.AddNode(graph.Node{ID: pid})
				next = append(next, res.mod)
			}
			flushPending(g, verPending, vid, pid)
			continue
		}

		// The pin pointed at nothing resolvable; key the failed node by the
		// version id so its edges still participate in conflict checks.
		verProject[vid] = vid
		if !g.Has(vid) {
			_ = g.AddNode(graph.Node{
				ID:       vid,
				Title:    vid,
				Resolved: false,
				Category: graph.CategoryFailed,
			})
		}
		flushPending(g, verPending, vid, vid)
	}
	return next
}

func flushPending(g *graph.Graph, verPending map[string][]pendingEdge, vid, nodeID string) {
	for _, pe := range verPending[vid] {
		_ = g.AddEdge(graph.Edge{From: nodeID, To: pe.parentID, Type: pe.depType})
	}
	delete(verPending, vid)
}

// finalize computes the derived presentation categories once the graph is
// frozen: seeds, failed nodes, and optional-only reachable nodes are
// distinguished; everything else is a plain dependency.
func (r *Resolver) finalize(g *graph.Graph, seedIDs map[string]bool) {
	for _, n := range g.Nodes() {
		switch {
		case seedIDs[n.ID]:
			n.Category = graph.CategorySeed
		case n.Category == graph.CategoryFailed:
			// keep
		case optionalOnly(g, n.ID):
			n.Category = graph.CategoryOptional
		default:
			n.Category = graph.CategoryDependency
		}
	}
}

// optionalOnly reports whether every declaration on the node is optional
// and at least one exists.
func optionalOnly(g *graph.Graph, id string) bool {
	edges := g.EdgesFrom(id)
	if len(edges) == 0 {
		return false
	}
	for _, e := range edges {
		if e.Type != modrinth.DepOptional {
			return false
		}
	}
	return true
}

// pruneOptionalChains downgrades not-found failures on nodes nothing
// actually requires: when every edge on the failed node is optional, the
// node, its error and its edges are removed and a notice is emitted.
func pruneOptionalChains(g *graph.Graph, errs []error, notices *[]string) []error {
	remaining := errs[:0]
	for _, err := range errs {
		ref := errors.GetRef(err)
		if ref == "" || !errors.IsNotFound(err) || !optionalOnly(g, ref) {
			remaining = append(remaining, err)
			continue
		}
		title := titleOf(g, ref)
		g.RemoveNode(ref)
		*notices = append(*notices, "removed optional mod "+title+": "+errors.UserMessage(err))
	}
	return remaining
}

// detectConflicts emits one conflict per incompatible edge. Only edges whose
// source is the incompatible target are inspected; reverse declarations made
// by the target itself are deliberately not merged in.
func detectConflicts(g *graph.Graph) []Conflict {
	var conflicts []Conflict
	for _, e := range g.Edges() {
		if e.Type != modrinth.DepIncompatible {
			continue
		}
		c := Conflict{
			Declarer: titleOf(g, e.To),
			Target:   titleOf(g, e.From),
		}
		for _, other := range g.EdgesFrom(e.From) {
			if other.Type == modrinth.DepRequired || other.Type == modrinth.DepOptional {
				c.NeededBy = append(c.NeededBy, titleOf(g, other.To))
			}
		}
		conflicts = append(conflicts, c)
	}
	return conflicts
}
