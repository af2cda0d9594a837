package cli

import (
	"fmt"

	"github.com/ladzaretti/chatmigrate/clierror"
	"github.com/ladzaretti/chatmigrate/genericclioptions"

	"github.com/spf13/cobra"
)

// DefaultChatmigrateOptions holds the global flags shared by all commands.
type DefaultChatmigrateOptions struct {
	*genericclioptions.StdioOptions

	configPath string
}

func NewDefaultChatmigrateOptions(iostreams *genericclioptions.IOStreams) *DefaultChatmigrateOptions {
	return &DefaultChatmigrateOptions{
		StdioOptions: &genericclioptions.StdioOptions{IOStreams: iostreams},
	}
}

// NewDefaultChatmigrateCommand creates the `chatmigrate` command with its sub-commands.
func NewDefaultChatmigrateCommand(iostreams *genericclioptions.IOStreams, args []string) *cobra.Command {
	o := NewDefaultChatmigrateOptions(iostreams)

	cmd := &cobra.Command{
		Use:   "chatmigrate",
		Short: "Verified migration of stationchat data from SQLite to MariaDB",
		Long: `chatmigrate copies every stationchat table from a SQLite database into an
empty MariaDB schema inside a single transaction, verifies each table by
row count and content checksum, and writes a JSON report of the run.

Exit codes:
    0: migration succeeded
    1: migration or verification failed (report written)
    2: SQLite database not found (no report written)

Environment Variables:
    CHATMIGRATE_CONFIG_PATH: overrides the default config path: "~/.chatmigrate.toml".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			clierror.Check(o.StdioOptions.Complete())
		},
	}

	cmd.SetArgs(args)
	cmd.SetOut(iostreams.Out)
	cmd.SetErr(iostreams.ErrOut)

	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "", "",
		fmt.Sprintf("configuration file path (default: ~/%s)", defaultConfigName))

	cmd.AddCommand(NewCmdRun(o))
	cmd.AddCommand(NewCmdTables(o))
	cmd.AddCommand(NewCmdConfig(o))
	cmd.AddCommand(newVersionCommand(o))

	return cmd
}
