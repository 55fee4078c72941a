// Command taskpilot is the TaskPilot CLI client.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:9090"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	var serverURL string
	cli := &Client{HTTPClient: &http.Client{Timeout: 90 * time.Second}}

	root := &cobra.Command{
		Use:           "taskpilot",
		Short:         "TaskPilot CLI: manage tasks on a taskpilotd server",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cli.BaseURL = strings.TrimRight(serverURL, "/")
		},
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("TASKPILOT_SERVER", defaultServer), "server URL")

	root.AddCommand(
		newVersionCommand(),
		newStatusCommand(cli),
		newListCommand(cli),
		newAddCommand(cli),
		newShowCommand(cli),
		newStatusChangeCommand(cli, "done", "Mark a task completed", "Completed"),
		newStatusChangeCommand(cli, "undo", "Mark a task pending", "Pending"),
		newToggleCommand(cli),
		newDeleteCommand(cli),
		newBreakdownCommand(cli),
		newRemindCommand(cli),
		newSuggestCommand(cli),
		newUpcomingCommand(cli),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...) //nolint:errcheck
}
