package genericclioptions

import (
	"fmt"

	"github.com/ladzaretti/chatmigrate/clierror"
	"github.com/ladzaretti/chatmigrate/input"
)

// StdioOptions provides stdin-related CLI helpers,
// intended to be embedded in option structs.
type StdioOptions struct {
	// NonInteractive is set when stdin is not a terminal;
	// no prompts are shown in that mode.
	NonInteractive bool

	*IOStreams
}

var _ BaseOptions = &StdioOptions{}

// Complete enables non-interactive mode if piped input is detected.
func (o *StdioOptions) Complete() error {
	if !o.NonInteractive {
		fi, err := o.In.Stat()
		if err != nil {
			return fmt.Errorf("stat input: %v", err)
		}

		if input.IsPipedOrRedirected(fi) {
			o.Debugf("Input is piped or redirected; Enabling non-interactive mode.\n")
			o.NonInteractive = true
		}
	}

	clierror.DebugMode(o.Verbose)

	return nil
}

func (*StdioOptions) Validate() error {
	return nil
}
