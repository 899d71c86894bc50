package cmd

import (
	"github.com/spf13/cobra"
)

// helpCmd represents the help command
var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show this help message",
	Long:  `Show this help message, or the help of a single command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			if target, _, err := cmd.Root().Find(args); err == nil && target != cmd.Root() {
				return target.Help()
			}
		}
		return cmd.Root().Help()
	},
}

func init() {
	RootCmd.SetHelpCommand(helpCmd)
}
