package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/api"
	"lectern/internal/apiclient"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage sessions",
	}

	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsInitCommand(ctx))
	sessionsCmd.AddCommand(newSessionsEndCommand(ctx))

	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				sessions, err := client.Sessions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions recorded.")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					rows = append(rows, []string{
						session.SessionKey,
						session.DisplayID,
						session.RoomName,
						session.Language,
						session.StartedAt,
						orDash(session.EndedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"SESSION KEY", "DISPLAY ID", "ROOM", "LANG", "STARTED", "ENDED"},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of sessions to list")
	return cmd
}

func newSessionsInitCommand(ctx *commandContext) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "init <room-instance-id> <room-name>",
		Short: "Create or find the session for a room instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				session, err := client.InitSession(cmd.Context(), api.SessionInitRequest{
					RoomInstanceID:  args[0],
					RoomDisplayName: args[1],
					Language:        language,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s (%s)\n", session.SessionKey, session.DisplayID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Session language attribute")
	return cmd
}

func newSessionsEndCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "end <session-key>",
		Short: "Close an open session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				session, err := client.EndSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s ended at %s\n", session.SessionKey, session.EndedAt)
				return nil
			})
		},
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
