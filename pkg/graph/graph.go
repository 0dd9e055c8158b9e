// Package graph holds the dependency graph the resolver produces.
//
// It is a directed multigraph: nodes are mods keyed by their stable project
// id, edges run from a dependency target to the mod that declares it and
// carry the declared dependency type. Nodes are deduplicated by id; edges
// never are, because several parents may depend on the same child and a
// target can be declared at both project and version granularity.
//
// Graph is not safe for concurrent use without external synchronization.
// The resolver mutates it only between phase barriers.
package graph

import (
	"errors"
	"slices"

	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node id is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same id already exists. Node ids must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownEndpoint is returned by [Graph.AddEdge] when either endpoint
	// has not been added to the graph.
	ErrUnknownEndpoint = errors.New("unknown edge endpoint")
)

// Category is a derived, purely presentational node attribute computed after
// the graph is frozen. It never feeds back into resolution logic.
type Category string

const (
	// CategorySeed marks mods the user asked for directly.
	CategorySeed Category = "seed"
	// CategoryDependency marks mods drawn in transitively.
	CategoryDependency Category = "dependency"
	// CategoryOptional marks mods reachable through optional edges only.
	CategoryOptional Category = "optional"
	// CategoryFailed marks mods whose resolution definitively failed.
	CategoryFailed Category = "failed"
)

// Node is one mod in the graph.
type Node struct {
	ID       string   `json:"id"`                  // stable project id
	Title    string   `json:"title"`               // display title
	Slug     string   `json:"slug,omitempty"`      // registry slug
	Version  string   `json:"version,omitempty"`   // chosen version id
	Href     string   `json:"href,omitempty"`      // mod page URL
	Resolved bool     `json:"resolved"`            // version resolution succeeded
	Category Category `json:"category,omitempty"`
}

// Edge is one dependency declaration: From is the depended-on target,
// To is the mod declaring the dependency.
type Edge struct {
	From string           `json:"from"`
	To   string           `json:"to"`
	Type modrinth.DepType `json:"type"`
}

// Graph is the resolver's output structure.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]int // node id -> indices into edges where From matches
	incoming map[string][]int // node id -> indices into edges where To matches
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}
}

// AddNode adds a node keyed by its ID.
// Returns ErrInvalidNodeID for an empty id and ErrDuplicateNodeID when the
// id is already present.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	g.nodes[n.ID] = &n
	return nil
}

// AddEdge appends a directed typed edge. Both endpoints must already exist.
// Parallel edges are allowed and preserved.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownEndpoint
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownEndpoint
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], idx)
	g.incoming[e.To] = append(g.incoming[e.To], idx)
	return nil
}

// RemoveNode deletes the node and every edge touching it.
// Removing an unknown id is a no-op.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return e.From == id || e.To == id
	})
	g.reindex()
}

func (g *Graph) reindex() {
	g.outgoing = make(map[string][]int)
	g.incoming = make(map[string][]int)
	for i, e := range g.edges {
		g.outgoing[e.From] = append(g.outgoing[e.From], i)
		g.incoming[e.To] = append(g.incoming[e.To], i)
	}
}

// Node returns the node with the given id, or nil and false if absent.
// The pointer refers to graph-owned state; the resolver uses it to apply
// presentation attributes after the graph is frozen.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether a node with the given id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes sorted by id for deterministic output.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EdgesFrom returns the edges whose source is the given node, in insertion
// order. These are the declarations that depend on (or conflict with) id.
func (g *Graph) EdgesFrom(id string) []Edge {
	idxs := g.outgoing[id]
	edges := make([]Edge, 0, len(idxs))
	for _, i := range idxs {
		edges = append(edges, g.edges[i])
	}
	return edges
}

// EdgesTo returns the edges whose sink is the given node, in insertion order.
func (g *Graph) EdgesTo(id string) []Edge {
	idxs := g.incoming[id]
	edges := make([]Edge, 0, len(idxs))
	for _, i := range idxs {
		edges = append(edges, g.edges[i])
	}
	return edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }
