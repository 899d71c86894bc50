package main

import (
	"context"
	"io"

	"github.com/cristianoliveira/cmdsync/cmd"
	"github.com/cristianoliveira/cmdsync/internal/app"
	"github.com/spf13/cobra"
)

type listClient interface {
	List(ctx context.Context, opts app.ListOptions, w io.Writer) error
}

const listCommandLong = `List the desired-state command set.

USAGE:
    cmdsync list [OPTIONS]

OPTIONS:
    --all                Include commands marked as deleted
    --format=<format>    Output format: table (default), simple, json
    -h, --help           Show this help`

// NewListCmd creates the list command with explicit dependencies.
func NewListCmd(client listClient) *cobra.Command {
	if client == nil {
		panic("NewListCmd: client dependency cannot be nil")
	}

	var opts app.ListOptions

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered commands",
		Long:  listCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.List(commandContext(cmd), opts, cmd.OutOrStdout())
		},
	}

	listCmd.Flags().BoolVar(&opts.All, "all", false, "Include commands marked as deleted")
	listCmd.Flags().StringVar(&opts.Format, "format", "table", "Output format: table, simple, json")

	return listCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewListCmd(runtimeClient))
}
