package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kari/internal/api"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	var page int
	var size int

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "List the segments of the media under review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *api.Service) error {
				result, err := svc.ListSegments(cmd.Context(), page, size)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				if len(result.Segments) == 0 {
					fmt.Fprintln(out, "Corpus is empty")
					return nil
				}
				fmt.Fprintf(out, "%s [%s]  page %d/%d\n", result.MediaPath, result.Lang, result.Page, result.TotalPages)
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Start", "Raw", "Translated", "Edited"},
					segmentRows(result.Segments),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
					2, 3,
				))
				if result.Pending > 0 {
					fmt.Fprintf(out, "%d unsaved edits\n", result.Pending)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 0, "Segments per page (defaults to session.page_size)")
	return cmd
}

func segmentRows(segments []api.Segment) [][]string {
	rows := make([][]string, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, []string{
			strconv.FormatInt(seg.ID, 10),
			seg.Start,
			seg.RawText,
			seg.TranslatedText,
			yesNo(seg.Edited),
		})
	}
	return rows
}
