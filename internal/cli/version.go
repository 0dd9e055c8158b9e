package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peter2500zz/mod-auto-download/pkg/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}
}
