// Command apicheck runs contract checks against the collaborators and reports the outcome of each.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	opts := &runOptions{}
	exitCode := 0

	rootCmd := &cobra.Command{
		Use:   "apicheck",
		Short: "Contract checks for third-party JSON HTTP APIs",
		Long: `apicheck issues live HTTP requests to the GitHub API, a fake-data API and an HTTP echo service,
and asserts on status codes, headers and JSON bodies. Exits 0 iff every check which was not skipped passed.

Configuration is read from the environment and an optional .env file, see APICHECK_* variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(cmd.Context(), opts)
			exitCode = code
			return err
		},
	}
	opts.addFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the checks (the default)",
		SilenceUsage: true,
		RunE:         rootCmd.RunE,
	}
	opts.addFlags(runCmd)

	rootCmd.AddCommand(runCmd, createListCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("apicheck failed")
		if exitCode == 0 {
			exitCode = 2
		}
	}
	stop()
	os.Exit(exitCode)
}
