package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ladzaretti/chatmigrate/cli"
	"github.com/ladzaretti/chatmigrate/clierror"
	"github.com/ladzaretti/chatmigrate/genericclioptions"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewDefaultChatmigrateCommand(genericclioptions.NewDefaultIOStreams(), os.Args[1:])

	_ = clierror.Check(cmd.ExecuteContext(ctx))
}
