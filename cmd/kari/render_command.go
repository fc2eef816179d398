package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kari/internal/api"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Burn the reviewed subtitles into the media under review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *api.Service) error {
				path, err := svc.RenderFinal(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"outputPath": path})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s\n", path)
				return nil
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path.srt>",
		Short: "Write the reviewed subtitles as an SRT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *api.Service) error {
				n, err := svc.ExportSRT(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"path": args[0], "entries": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", n, args[0])
				return nil
			})
		},
	}
}
