package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/peter2500zz/mod-auto-download/pkg/graph"
	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
)

// visNode and visEdge match the structures vis-network consumes.
type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	Title string `json:"title,omitempty"` // hover tooltip
	Href  string `json:"href,omitempty"`
}

type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Color  string `json:"color"`
	Label  string `json:"label,omitempty"`
	Arrows string `json:"arrows"`
	Dashes bool   `json:"dashes,omitempty"`
}

var htmlTmpl = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Mod dependency graph</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
  html, body { margin: 0; height: 100%; }
  #graph { width: 100%; height: 100%; }
</style>
</head>
<body>
<div id="graph"></div>
<script>
  const nodes = new vis.DataSet({{.Nodes}});
  const edges = new vis.DataSet({{.Edges}});
  const network = new vis.Network(
    document.getElementById("graph"),
    { nodes, edges },
    { physics: { stabilization: true } },
  );
  network.on("doubleClick", (params) => {
    if (params.nodes.length === 1) {
      const href = nodes.get(params.nodes[0]).href;
      if (href) window.open(href, "_blank");
    }
  });
</script>
</body>
</html>
`))

// WriteHTML renders the graph as an interactive vis-network page.
func WriteHTML(g *graph.Graph, w io.Writer) error {
	nodes := make([]visNode, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes = append(nodes, visNode{
			ID:    n.ID,
			Label: nodeLabel(n),
			Color: categoryColor(n.Category),
			Title: n.Version,
			Href:  n.Href,
		})
	}

	edges := make([]visEdge, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		ve := visEdge{From: e.From, To: e.To, Color: edgeColor(e.Type), Arrows: "to"}
		switch e.Type {
		case modrinth.DepIncompatible:
			ve.Label = "x"
			ve.Dashes = true
		case modrinth.DepOptional:
			ve.Dashes = true
		}
		edges = append(edges, ve)
	}

	nodeJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	edgeJSON, err := json.Marshal(edges)
	if err != nil {
		return fmt.Errorf("marshal edges: %w", err)
	}

	return htmlTmpl.Execute(w, map[string]template.JS{
		"Nodes": template.JS(nodeJSON),
		"Edges": template.JS(edgeJSON),
	})
}

// WriteHTMLFile writes the interactive page to path with 0644 permissions.
func WriteHTMLFile(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteHTML(g, f)
}
