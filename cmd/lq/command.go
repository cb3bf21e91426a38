package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"strings"
	"time"
)

var commandCmd = &cobra.Command{
	Use:   "command NAME[;ARGS...]",
	Short: "Submit an external command",
	Long: `Submit an external command to the monitoring core.
The bracketed timestamp the core expects is prepended automatically.`,
	Example: `  lq command 'ACKNOWLEDGE_HOST_PROBLEM;web;1;1;0;admin;Working on it'
  lq command 'LOG;Hello world'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

func runCommand(cmd *cobra.Command, args []string) error {
	return query(socket, timeout, []string{commandLine(strings.Join(args, " "), time.Now())}, cmd.OutOrStdout())
}

// commandLine returns the COMMAND request for the external command line c submitted at now.
func commandLine(c string, now time.Time) string {
	return fmt.Sprintf("COMMAND [%d] %s", now.Unix(), c)
}
