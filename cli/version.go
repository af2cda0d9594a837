package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X".
var Version = "dev"

func newVersionCommand(defaults *DefaultChatmigrateOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			defaults.Printf("%s\n", Version)
		},
	}
}
