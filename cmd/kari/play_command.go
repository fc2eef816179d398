package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kari/internal/api"
	"kari/internal/timeline"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var at int64
	var jump int64
	var loop bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Show the subtitle overlay at a playback position",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *api.Service) error {
				state, err := svc.ActiveAt(cmd.Context(), api.PlaybackRequest{AtMs: at, JumpTo: jump, Loop: loop})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, state)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Position: %s\n", timeline.FormatTimestamp(state.PositionMs))
				if state.Reset {
					fmt.Fprintln(out, "Loop:     rewound to jump target")
				}
				if state.Active == nil {
					fmt.Fprintln(out, "(no subtitle)")
					return nil
				}
				fmt.Fprintf(out, "Segment:  %d\n", state.Active.SegmentID)
				fmt.Fprintln(out, state.Active.Overlay)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&at, "at", 0, "Playback position in milliseconds")
	cmd.Flags().Int64Var(&jump, "jump", 0, "Seek to the start of this segment first")
	cmd.Flags().BoolVar(&loop, "loop", false, "Loop the jump target's window")
	return cmd
}
