package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/peter2500zz/mod-auto-download/pkg/buildinfo"
)

// Execute runs the modget CLI and returns an error if any command fails.
// Logging defaults to info level; --verbose (-v) switches to debug. The
// logger is attached to the context and shared by all commands.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "modget",
		Short:        "modget fetches a consistent set of Modrinth mods",
		Long:         `modget resolves a list of Modrinth mods against a target game version and loader, expands their dependency graph, flags incompatibilities, and downloads hash-verified files.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newGetCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newVersionCmd())

	return root.ExecuteContext(ctx)
}
