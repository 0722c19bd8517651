package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/api"
	"lectern/internal/apiclient"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "transcript <session-key>",
		Short: "Print a session transcript in playback order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				fragments, err := client.Transcript(cmd.Context(), args[0], language)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(fragments) == 0 {
					fmt.Fprintln(out, "No transcript fragments recorded.")
					return nil
				}
				for _, fragment := range fragments {
					fmt.Fprintln(out, formatFragment(fragment))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Filter by language")
	return cmd
}

func formatFragment(fragment api.Fragment) string {
	offset := time.Duration(fragment.OffsetMS) * time.Millisecond
	stamp := fmt.Sprintf("%02d:%02d:%02d",
		int(offset.Hours()), int(offset.Minutes())%60, int(offset.Seconds())%60)
	if fragment.SpeakerName != "" {
		return fmt.Sprintf("[%s] %s: %s", stamp, fragment.SpeakerName, fragment.Text)
	}
	return fmt.Sprintf("[%s] %s", stamp, fragment.Text)
}
