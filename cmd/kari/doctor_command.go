package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kari/internal/api"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that external tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := api.Doctor(cfg)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			missing := 0
			for _, status := range statuses {
				if status.Available {
					if !ctx.jsonOutput() {
						fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Command, colorize))
					}
					continue
				}
				kind := statusError
				if status.Optional {
					kind = statusWarn
				} else {
					missing++
				}
				if !ctx.jsonOutput() {
					fmt.Fprintln(out, renderStatusLine(status.Name, kind, status.Detail, colorize))
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d required dependencies missing", missing)
			}
			return nil
		},
	}
}
