// Package export renders the finalized dependency graph for humans.
//
// The core only emits an abstract graph; everything here is a consumer of
// that structure. Two renderers are provided: Graphviz (DOT, then SVG) and
// an interactive vis-network HTML page.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/peter2500zz/mod-auto-download/pkg/graph"
	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
)

// ToDOT converts a graph to Graphviz DOT format. Node fill follows the
// category computed by the resolver; edge color follows the dependency type.
func ToDOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := []string{
			fmt.Sprintf("label=%q", nodeLabel(n)),
			fmt.Sprintf("fillcolor=%q", categoryColor(n.Category)),
		}
		if n.Href != "" {
			attrs = append(attrs, fmt.Sprintf("href=%q", n.Href))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q [color=%q%s];\n",
			e.From, e.To, edgeColor(e.Type), edgeExtra(e.Type))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

func nodeLabel(n *graph.Node) string {
	title := n.Title
	if title == "" {
		title = n.ID
	}
	if !n.Resolved {
		return title + "\n(unresolvable)"
	}
	return title
}

func categoryColor(c graph.Category) string {
	switch c {
	case graph.CategorySeed:
		return "green"
	case graph.CategoryFailed:
		return "red"
	case graph.CategoryOptional:
		return "lightgrey"
	default:
		return "lightgreen"
	}
}

func edgeColor(t modrinth.DepType) string {
	switch t {
	case modrinth.DepIncompatible:
		return "red"
	case modrinth.DepOptional:
		return "lightgrey"
	case modrinth.DepEmbedded:
		return "purple"
	default:
		return "lightgreen"
	}
}

func edgeExtra(t modrinth.DepType) string {
	if t == modrinth.DepIncompatible {
		return `, label="x", fontcolor=red`
	}
	return ""
}
