package genericclioptions

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

func MarkFlagsHidden(sub *cobra.Command, hidden ...string) {
	f := sub.HelpFunc()
	sub.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		for _, n := range hidden {
			flag := cmd.Flags().Lookup(n)
			if flag != nil {
				flag.Hidden = true
			}
		}

		f(cmd, args)
	})
}

// RejectDisallowedFlags fails if any of the named flags was set on cmd.
func RejectDisallowedFlags(cmd *cobra.Command, disallowed ...string) error {
	for _, name := range disallowed {
		if cmd.Flags().Changed(name) {
			return fmt.Errorf("flag --%s is not allowed with '%s' command", name, cmd.Name())
		}
	}

	return nil
}

func RunCommand(ctx context.Context, io *StdioOptions, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	cmd.Stdout = io.Out
	cmd.Stderr = io.ErrOut

	return cmd.Run()
}

// RunHook runs an external command given as argv, streaming its output.
// An empty hook is a no-op.
func RunHook(ctx context.Context, io *StdioOptions, hook []string) (retErr error) {
	if len(hook) == 0 {
		return nil
	}

	cmd, args := hook[0], hook[1:]

	io.Infof("Running hook: %q\n", hook)

	defer func() {
		if retErr != nil {
			io.Warnf("Hook failed: %v\n", retErr)
			return
		}

		io.Infof("Hook completed successfully.\n")
	}()

	return RunCommand(ctx, io, cmd, args...)
}
