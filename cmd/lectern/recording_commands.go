package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lectern/internal/api"
	"lectern/internal/apiclient"
)

func newRecordingsCommand(ctx *commandContext) *cobra.Command {
	recordingsCmd := &cobra.Command{
		Use:   "recordings",
		Short: "Inspect and manage recordings",
	}

	recordingsCmd.AddCommand(newRecordingsListCommand(ctx))
	recordingsCmd.AddCommand(newRecordingsStartCommand(ctx))
	recordingsCmd.AddCommand(newRecordingsStopCommand(ctx))

	return recordingsCmd
}

func newRecordingsListCommand(ctx *commandContext) *cobra.Command {
	var sessionKey string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				recordings, err := client.Recordings(cmd.Context(), sessionKey, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(recordings) == 0 {
					fmt.Fprintln(out, "No recordings found.")
					return nil
				}
				rows := make([][]string, 0, len(recordings))
				for _, recording := range recordings {
					rows = append(rows, []string{
						recording.ExternalJobID,
						recording.SessionKey,
						recording.RoomName,
						recording.Status,
						formatDuration(recording.DurationSeconds),
						formatSize(recording.SizeBytes),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"JOB ID", "SESSION KEY", "ROOM", "STATUS", "DURATION", "SIZE"},
					rows,
					4, 5,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sessionKey, "session", "", "Filter by session key")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of recordings to list")
	return cmd
}

func newRecordingsStartCommand(ctx *commandContext) *cobra.Command {
	var language string
	var requestedBy string
	var classroomID string

	cmd := &cobra.Command{
		Use:   "start <room-instance-id> <room-name>",
		Short: "Start a recording for a room instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				recording, err := client.StartRecording(cmd.Context(), api.RecordingStartRequest{
					RoomInstanceID:  args[0],
					RoomDisplayName: args[1],
					Language:        language,
					RequestedBy:     requestedBy,
					ClassroomID:     classroomID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording %s started for session %s\n",
					recording.ExternalJobID, recording.SessionKey)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Session language attribute")
	cmd.Flags().StringVar(&requestedBy, "requested-by", "", "Identity requesting the recording")
	cmd.Flags().StringVar(&classroomID, "classroom", "", "Classroom identifier")
	return cmd
}

func newRecordingsStopCommand(ctx *commandContext) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "stop <room-name>",
		Short: "Stop the active recording for a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				err := client.StopRecording(cmd.Context(), api.RecordingStopRequest{
					RoomDisplayName: args[0],
					Language:        language,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stop requested for room %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Session language attribute")
	return cmd
}

func formatDuration(seconds *int64) string {
	if seconds == nil {
		return "-"
	}
	return strconv.FormatInt(*seconds, 10) + "s"
}

func formatSize(size *int64) string {
	if size == nil {
		return "-"
	}
	value := float64(*size)
	for _, unit := range []string{"B", "KiB", "MiB", "GiB"} {
		if value < 1024 || unit == "GiB" {
			if unit == "B" {
				return fmt.Sprintf("%d %s", *size, unit)
			}
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return strconv.FormatInt(*size, 10)
}
