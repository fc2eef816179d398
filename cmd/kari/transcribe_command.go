package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kari/internal/api"
	"kari/internal/language"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var noImport bool

	cmd := &cobra.Command{
		Use:   "transcribe <media>",
		Short: "Recognize, translate and subtitle a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			reporter := newProgressReporter(cmd.ErrOrStderr(), logger)
			defer reporter.finish()

			return ctx.withService(cmd.Context(), func(svc *api.Service) error {
				res, runErr := svc.Transcribe(cmd.Context(), api.TranscribeRequest{
					MediaPath:  args[0],
					Language:   lang,
					SkipImport: noImport,
				})
				if runErr != nil && len(res.Segments) == 0 {
					return runErr
				}
				reporter.finish()
				if ctx.jsonOutput() {
					if err := writeJSON(cmd, res); err != nil {
						return err
					}
					return runErr
				}
				printTranscribeResult(cmd, res)
				if runErr != nil {
					return fmt.Errorf("transcription stopped after %d segments: %w", len(res.Segments), runErr)
				}
				return nil
			}, api.WithProgress(reporter.update))
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Source language: "+strings.Join(language.Keys(), ", "))
	cmd.Flags().BoolVar(&noImport, "no-import", false, "Transcribe the file in place instead of importing a copy into the library")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}

func printTranscribeResult(cmd *cobra.Command, res api.TranscribeResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Media:    %s\n", res.MediaPath)
	fmt.Fprintf(out, "Language: %s\n", res.Lang)
	fmt.Fprintf(out, "Segments: %d (%d silent windows skipped)\n", len(res.Segments), res.Skipped)
	if res.OutputPath != "" {
		fmt.Fprintf(out, "Output:   %s\n", res.OutputPath)
	} else {
		fmt.Fprintln(out, "Output:   not rendered")
	}
	if res.SRT != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, res.SRT)
	}
}
