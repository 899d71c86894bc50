package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cristianoliveira/cmdsync/cmd"
	"github.com/cristianoliveira/cmdsync/internal/app"
	"github.com/spf13/cobra"
)

type serveClient interface {
	Serve(ctx context.Context, opts app.ServeOptions, w io.Writer) error
}

const serveCommandLong = `Register commands, then route console lines until input ends.

USAGE:
    cmdsync serve [OPTIONS]

OPTIONS:
    --as <id>            Caller ID for every line (default "console")
    --watch              Reload and reconcile when the commands directory changes
    --no-sync            Skip registration on startup
    --format=<format>    Format of the startup report: table (default), simple, json
    -h, --help           Show this help

INPUT:
    /name key=value ...  Slash invocation
    @button:<id>         Component interaction
    anything else        Message, routed when it starts with the prefix`

// NewServeCmd creates the serve command with explicit dependencies.
func NewServeCmd(client serveClient) *cobra.Command {
	if client == nil {
		panic("NewServeCmd: client dependency cannot be nil")
	}

	var opts app.ServeOptions

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Route console events",
		Long:  serveCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			opts.In = cmd.InOrStdin()
			return client.Serve(ctx, opts, cmd.OutOrStdout())
		},
	}

	serveCmd.Flags().StringVar(&opts.CallerID, "as", "console", "Caller ID for every line")
	serveCmd.Flags().BoolVar(&opts.Watch, "watch", false, "Hot-reload the commands directory")
	serveCmd.Flags().BoolVar(&opts.NoSync, "no-sync", false, "Skip registration on startup")
	serveCmd.Flags().StringVar(&opts.Format, "format", "table", "Output format: table, simple, json")

	return serveCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewServeCmd(runtimeClient))
}
