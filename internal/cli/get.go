package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/peter2500zz/mod-auto-download/pkg/download"
	"github.com/peter2500zz/mod-auto-download/pkg/errors"
	"github.com/peter2500zz/mod-auto-download/pkg/export"
	"github.com/peter2500zz/mod-auto-download/pkg/graph"
	"github.com/peter2500zz/mod-auto-download/pkg/httputil"
	"github.com/peter2500zz/mod-auto-download/pkg/mod"
	"github.com/peter2500zz/mod-auto-download/pkg/modrinth"
	"github.com/peter2500zz/mod-auto-download/pkg/resolver"
)

// newGetCmd creates the get command: resolve a mod list and download it.
func newGetCmd() *cobra.Command {
	var configPath string
	flags := defaultConfig()

	cmd := &cobra.Command{
		Use:   "get [slug-or-url ...]",
		Short: "Resolve a mod list and download a consistent file set",
		Long: `Resolve each named mod against the target game version and loader, expand
the dependency graph breadth-first, and download hash-verified files.

Mods can be given as bare slugs (sodium), project ids, or mod page URLs
(https://modrinth.com/mod/sodium). Each phase gates the next: nothing is
downloaded while any mod, version, or dependency remains unresolved or an
incompatibility is flagged. The dependency graph is always written out so
failed runs can still be inspected.

Flags override values from the --config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfig()
			if configPath != "" {
				loaded, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			applyFlagOverrides(cmd, &cfg, &flags)
			cfg.Mods = append(cfg.Mods, args...)
			if err := cfg.validate(); err != nil {
				return fmt.Errorf("%s", errors.UserMessage(err))
			}
			return runGet(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVarP(&flags.GameVersion, "game-version", "g", flags.GameVersion, "target game version, e.g. 1.20.1")
	cmd.Flags().StringVarP(&flags.Loader, "loader", "l", flags.Loader, "target mod loader, e.g. fabric")
	cmd.Flags().BoolVar(&flags.Client, "client", flags.Client, "require client-side support")
	cmd.Flags().BoolVar(&flags.Server, "server", flags.Server, "require server-side support")
	cmd.Flags().BoolVar(&flags.AllowOptional, "allow-optional", flags.AllowOptional, "follow optional dependencies")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", flags.Workers, "concurrent workers per phase")
	cmd.Flags().StringVarP(&flags.DownloadDir, "dir", "d", flags.DownloadDir, "download directory")
	cmd.Flags().IntVar(&flags.RequestsPerMinute, "rpm", flags.RequestsPerMinute, "API request budget per minute (0 disables limiting)")
	cmd.Flags().StringVar(&flags.GraphOut, "graph-out", flags.GraphOut, "dependency graph output file (.html)")

	return cmd
}

// applyFlagOverrides copies every explicitly set flag value over the file
// configuration, so flags always win.
func applyFlagOverrides(cmd *cobra.Command, cfg, flags *Config) {
	set := cmd.Flags().Changed
	if set("game-version") {
		cfg.GameVersion = flags.GameVersion
	}
	if set("loader") {
		cfg.Loader = flags.Loader
	}
	if set("client") {
		cfg.Client = flags.Client
	}
	if set("server") {
		cfg.Server = flags.Server
	}
	if set("allow-optional") {
		cfg.AllowOptional = flags.AllowOptional
	}
	if set("workers") {
		cfg.Workers = flags.Workers
	}
	if set("dir") {
		cfg.DownloadDir = flags.DownloadDir
	}
	if set("rpm") {
		cfg.RequestsPerMinute = flags.RequestsPerMinute
	}
	if set("graph-out") {
		cfg.GraphOut = flags.GraphOut
	}
}

// runGet drives the gated pipeline: construct, resolve projects, resolve
// versions, expand dependencies, resolve files, download.
func runGet(ctx context.Context, cfg Config) error {
	logger := loggerFromContext(ctx)
	logger.Debug("starting run",
		"game_version", cfg.GameVersion, "loader", cfg.Loader,
		"mods", len(cfg.Mods), "workers", cfg.Workers)

	mods, constructErrs := buildSeeds(cfg.Mods)
	if len(constructErrs) > 0 {
		reportErrors("invalid mod identifiers", constructErrs)
		return fmt.Errorf("%d invalid mod identifier(s)", len(constructErrs))
	}

	limiter := httputil.NewLimiter(cfg.RequestsPerMinute)
	client := modrinth.NewClient(limiter)

	spinner := newSpinner(ctx, "resolving mods")
	sink := newSpinnerSink(spinner)
	spinner.Start()
	defer spinner.Stop()

	res := resolver.New(client, sink, resolver.Options{
		GameVersion:   cfg.GameVersion,
		Loader:        cfg.Loader,
		RequireClient: cfg.Client,
		RequireServer: cfg.Server,
		AllowOptional: cfg.AllowOptional,
		Workers:       cfg.Workers,
	})

	collected, notices, err := res.ResolveProjects(ctx, mods)
	if err != nil {
		spinner.StopWithError("resolving mods failed")
		return err
	}
	reportNotices(spinner, notices)
	if len(collected) > 0 {
		spinner.Stop()
		reportErrors("some mods could not be resolved", collected)
		return fmt.Errorf("%d mod(s) could not be resolved", len(collected))
	}

	collected, err = res.ResolveVersions(ctx, mods)
	if err != nil {
		spinner.StopWithError("checking versions failed")
		return err
	}
	if len(collected) > 0 {
		spinner.Stop()
		reportErrors(fmt.Sprintf("no usable version for %s on %s", cfg.GameVersion, cfg.Loader), collected)
		return fmt.Errorf("%d mod(s) have no usable version", len(collected))
	}

	result, err := res.ExpandDependencies(ctx, mods)
	if err != nil {
		spinner.StopWithError("expanding dependencies failed")
		return err
	}
	spinner.Stop()
	reportNotices(nil, result.Notices)
	printInfo("resolved %d mods (%d edges)", result.Graph.NodeCount(), result.Graph.EdgeCount())

	// The graph is written before the continue gate so a failed run can
	// still be inspected.
	if err := writeGraph(result.Graph, cfg.GraphOut); err != nil {
		return err
	}

	if !result.ShouldContinue() {
		printError("will not continue because:")
		if len(result.Conflicts) > 0 {
			reportConflicts(result.Conflicts)
			printInfo("incompatible mods cannot be installed together; drop the declaring mod or the mods that need the target")
		}
		if len(result.Errors) > 0 {
			reportErrors("unresolvable dependencies", result.Errors)
		}
		return fmt.Errorf("resolution finished with %d error(s) and %d conflict(s); nothing downloaded",
			len(result.Errors), len(result.Conflicts))
	}

	spinner = newSpinner(ctx, "resolving files")
	sink.spinner = spinner
	spinner.Start()
	defer spinner.Stop()

	dl := download.New(client, client, sink, download.Options{Dir: cfg.DownloadDir, Workers: cfg.Workers})
	collected, err = dl.Run(ctx, result.Mods)
	if err != nil {
		spinner.StopWithError("download failed")
		return err
	}
	if len(collected) > 0 {
		spinner.Stop()
		reportErrors("some files could not be downloaded", collected)
		return fmt.Errorf("%d file(s) failed", len(collected))
	}

	spinner.StopWithSuccess(fmt.Sprintf("downloaded %d mods to %s", len(result.Mods), cfg.DownloadDir))
	printFile(cfg.GraphOut)
	printFile(jsonSibling(cfg.GraphOut))
	return nil
}

// buildSeeds constructs a Mod per entry, collecting malformed identifiers
// instead of stopping at the first.
func buildSeeds(entries []string) ([]*mod.Mod, []error) {
	var (
		mods []*mod.Mod
		errs []error
	)
	for _, raw := range entries {
		m, err := mod.New(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mods = append(mods, m)
	}
	return mods, errs
}

// writeGraph saves the interactive HTML view plus a JSON sibling the graph
// command can re-render later.
func writeGraph(g *graph.Graph, htmlPath string) error {
	if err := export.WriteHTMLFile(g, htmlPath); err != nil {
		return fmt.Errorf("write graph %s: %w", htmlPath, err)
	}
	jsonPath := jsonSibling(htmlPath)
	if err := graph.WriteFile(g, jsonPath); err != nil {
		return fmt.Errorf("write graph %s: %w", jsonPath, err)
	}
	return nil
}

func jsonSibling(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".json"
}

// reportNotices prints informational removals and warnings below the spinner.
func reportNotices(spinner *Spinner, notices []string) {
	if len(notices) == 0 {
		return
	}
	if spinner != nil {
		spinner.Stop()
	}
	for _, n := range notices {
		printWarning("%s", n)
	}
	if spinner != nil {
		spinner.Start()
	}
}

// reportErrors prints the phase's collected errors as one tree.
func reportErrors(header string, errs []error) {
	nodes := make([]treeNode, 0, len(errs))
	for _, err := range errs {
		nodes = append(nodes, treeNode{text: errors.UserMessage(err)})
	}
	printError("%s", header)
	fmt.Println(renderTree("", nodes))
}

// reportConflicts prints each incompatibility with the mods that pull the
// conflicting target in, so the operator knows what to drop.
func reportConflicts(conflicts []resolver.Conflict) {
	for _, c := range conflicts {
		children := make([]treeNode, 0, len(c.NeededBy))
		for _, t := range c.NeededBy {
			children = append(children, treeNode{text: "needed by " + t})
		}
		printError("%s", c.String())
		if len(children) > 0 {
			fmt.Println(renderTree("", children))
		}
	}
}
