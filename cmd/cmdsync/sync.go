package main

import (
	"context"
	"io"

	"github.com/cristianoliveira/cmdsync/cmd"
	"github.com/cristianoliveira/cmdsync/internal/app"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/spf13/cobra"
)

type syncClient interface {
	Sync(ctx context.Context, opts app.SyncOptions, w io.Writer) (*reconcile.Report, error)
}

const syncCommandLong = `Discover local commands and reconcile them with the remote registry.

USAGE:
    cmdsync sync [OPTIONS]

OPTIONS:
    --dry-run            Print the plan without calling the registry
    --scope <id>         Target a deployment scope ("global" for the global scope)
    --format=<format>    Output format: table (default), simple, json
    -h, --help           Show this help

Only local definitions are acted on: remote records with no local
counterpart are left untouched.`

// NewSyncCmd creates the sync command with explicit dependencies.
func NewSyncCmd(client syncClient) *cobra.Command {
	if client == nil {
		panic("NewSyncCmd: client dependency cannot be nil")
	}

	var opts app.SyncOptions

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local commands with the remote registry",
		Long:  syncCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := client.Sync(commandContext(cmd), opts, cmd.OutOrStdout())
			return err
		},
	}

	syncCmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without calling the registry")
	syncCmd.Flags().StringVar(&opts.Scope, "scope", "", "Deployment scope to reconcile")
	syncCmd.Flags().StringVar(&opts.Format, "format", "table", "Output format: table, simple, json")

	return syncCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewSyncCmd(runtimeClient))
}
