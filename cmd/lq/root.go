package main

import (
	"bufio"
	"github.com/icinga/icinga-livestatus/internal"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"io"
	"strings"
	"time"
)

var (
	socket  string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "lq [query lines...]",
	Short: "Query Icinga Livestatus",
	Long: `lq sends a livestatus request to the Icinga Livestatus daemon and prints the response.
The request lines are taken from the arguments or, if there are none, from stdin.`,
	Example: `  lq 'GET hosts' 'Columns: name address'
  echo 'GET status' | lq`,
	Version:      internal.Version.Version,
	SilenceUsage: true,
	RunE:         runQuery,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&socket, "socket", "s", "/run/icinga-livestatus/live", "livestatus socket")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout of the whole request")
	rootCmd.AddCommand(commandCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	lines := args
	if len(lines) == 0 {
		var err error
		if lines, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	if len(lines) == 0 {
		return errors.New("no request given")
	}

	return query(socket, timeout, lines, cmd.OutOrStdout())
}

// readLines reads request lines from r up to the first empty line or EOF.
func readLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break
		}

		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "can't read request")
	}

	return lines, nil
}
