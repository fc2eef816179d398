package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kari/internal/api"
)

func newCorpusCommand(ctx *commandContext) *cobra.Command {
	corpusCmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect or reset the segment corpus",
	}
	corpusCmd.AddCommand(newCorpusStatsCommand(ctx))
	corpusCmd.AddCommand(newCorpusClearCommand(ctx))
	return corpusCmd
}

func newCorpusStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize corpus contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *api.Service) error {
				stats, err := svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				latest := stats.LatestMedia
				if latest == "" {
					latest = "-"
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Driver", "Segments", "Media", "Under review"},
					[][]string{{
						stats.Driver,
						strconv.FormatInt(stats.Segments, 10),
						strconv.FormatInt(stats.Media, 10),
						latest,
					}},
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			}, api.WithoutSessionLock())
		},
	}
}

func newCorpusClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every segment in the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear the corpus without --yes")
			}
			return ctx.withService(cmd.Context(), func(svc *api.Service) error {
				n, err := svc.ClearCorpus(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int64{"deleted": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d segments\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm deleting all segments")
	return cmd
}
