package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"lectern/internal/apiclient"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				state := "stopped"
				color := ansiRed
				if status.Running {
					state = "running"
					color = ansiGreen
				}
				if colorize {
					state = color + state + ansiReset
				}
				fmt.Fprintf(out, "Daemon:     %s (pid %d)\n", state, status.PID)
				fmt.Fprintf(out, "Database:   %s\n", status.DatabasePath)
				fmt.Fprintf(out, "Lock file:  %s\n", status.LockFilePath)
				fmt.Fprintf(out, "Sessions:   %s\n", strconv.Itoa(status.Sessions))
				fmt.Fprintf(out, "Recordings: %s\n", strconv.Itoa(status.Recordings))
				return nil
			})
		},
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
