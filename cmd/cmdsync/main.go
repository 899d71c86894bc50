package main

import (
	"os"
	"strings"

	"github.com/cristianoliveira/cmdsync/cmd"
	"github.com/cristianoliveira/cmdsync/internal/colors"
	"github.com/cristianoliveira/cmdsync/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], cmd.Execute))
}

// run executes the CLI and maps the outcome to an exit code.
func run(args []string, execute func() error) int {
	err := execute()
	logger := logging.GetGlobal()
	if closeErr := runtimeClient.Close(); closeErr != nil {
		logger.Warn("failed to close runtime", "error", closeErr.Error())
	}
	if err != nil {
		colors.Error(err.Error())
		logger.Error("command failed", "args", strings.Join(args, " "), "error", err.Error())
		_ = logging.ShutdownGlobal()
		return 1
	}
	logger.Info("command completed", "args", strings.Join(args, " "))
	_ = logging.ShutdownGlobal()
	return 0
}
