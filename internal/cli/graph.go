package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/peter2500zz/mod-auto-download/pkg/export"
	"github.com/peter2500zz/mod-auto-download/pkg/graph"
)

// newGraphCmd creates the graph command for re-rendering a saved graph.
func newGraphCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph [graph.json]",
		Short: "Render a saved dependency graph",
		Long: `Render a dependency graph JSON file (written by 'get') to SVG or
interactive HTML. The output format is chosen from the output file
extension: .svg or .html.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .svg or .html (default: input with .svg)")

	return cmd
}

func runGraph(input, output string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	g, err := graph.Read(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}

	switch ext := filepath.Ext(output); ext {
	case ".svg":
		svg, err := export.RenderSVG(export.ToDOT(g))
		if err != nil {
			return fmt.Errorf("render %s: %w", output, err)
		}
		if err := os.WriteFile(output, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	case ".html":
		if err := export.WriteHTMLFile(g, output); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	default:
		return fmt.Errorf("unsupported output format %q (use .svg or .html)", ext)
	}

	printSuccess("rendered %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	printFile(output)
	return nil
}
