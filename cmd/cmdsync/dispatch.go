package main

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cristianoliveira/cmdsync/cmd"
	"github.com/cristianoliveira/cmdsync/internal/app"
	"github.com/cristianoliveira/cmdsync/internal/router"
	"github.com/spf13/cobra"
)

type dispatchClient interface {
	Dispatch(ctx context.Context, opts app.DispatchOptions, w io.Writer) (router.Result, error)
}

const dispatchCommandLong = `Route one message or slash invocation and print the replies.

USAGE:
    cmdsync dispatch --as <id> [OPTIONS] <text>

OPTIONS:
    --as <id>            Caller ID the invocation comes from (required)
    --slash              Treat <text> as a slash invocation: "name key=value ..."
    -h, --help           Show this help

EXAMPLES:
    cmdsync dispatch --as 1234 '!ping'
    cmdsync dispatch --as 1234 --slash 'roll sides=20'`

// NewDispatchCmd creates the dispatch command with explicit dependencies.
func NewDispatchCmd(client dispatchClient) *cobra.Command {
	if client == nil {
		panic("NewDispatchCmd: client dependency cannot be nil")
	}

	var opts app.DispatchOptions

	dispatchCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Route a single invocation",
		Long:  dispatchCommandLong,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || strings.TrimSpace(strings.Join(args, " ")) == "" {
				return errors.New("dispatch requires the invocation text")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Text = strings.Join(args, " ")
			_, err := client.Dispatch(commandContext(cmd), opts, cmd.OutOrStdout())
			return err
		},
	}

	dispatchCmd.Flags().StringVar(&opts.CallerID, "as", "", "Caller ID the invocation comes from")
	dispatchCmd.Flags().BoolVar(&opts.Slash, "slash", false, "Treat the text as a slash invocation")
	_ = dispatchCmd.MarkFlagRequired("as")

	return dispatchCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewDispatchCmd(runtimeClient))
}
