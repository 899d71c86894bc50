// Package cmd holds the cobra root command shared by the cmdsync binary.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/colors"
	"github.com/cristianoliveira/cmdsync/internal/config"
	"github.com/cristianoliveira/cmdsync/internal/version"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debugFlag  bool
	quietFlag  bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:           "cmdsync",
	Short:         "Keep a bot's command registry in sync and route its invocations.",
	Long:          `Keep a bot's command registry in sync and route its invocations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return LoadConfig(configPath, debugFlag, quietFlag)
	},
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

// LoadConfig loads the global configuration, applying command-line overrides.
func LoadConfig(path string, debug, quiet bool) error {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		if err := os.Setenv(config.EnvPrefix+"CONFIG_PATH", path); err != nil {
			return err
		}
	}
	config.Load()
	if debug {
		config.Set("debug", "true")
	}
	if quiet {
		config.Set("quiet", "true")
	}
	colors.SetDebug(config.GetBool("debug", false))
	return nil
}

func init() {
	RootCmd.Version = version.String()

	// Hide the completion command
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != cmd.Root() {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.Long)
			return
		}
		printHelpText(cmd)
	})

	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is $XDG_CONFIG_HOME/cmdsync/config.toml)")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug output")
	RootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Only log errors")
}

func printHelpText(cmd *cobra.Command) {
	commandOrder := []string{
		"sync",
		"list",
		"dispatch",
		"serve",
		"version",
		"help",
	}

	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-16s %s", found.Name(), found.Short))
	}

	helpText := fmt.Sprintf(`cmdsync v%s

Keep a bot's command registry in sync and route its invocations.

USAGE:
    cmdsync [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    --config <path> Config file
    --debug         Enable debug output
    --quiet         Only log errors
    -h, --help      Show help message
`, version.String(), strings.Join(cmdLines, "\n"))
	fmt.Fprint(cmd.OutOrStdout(), helpText)
}
