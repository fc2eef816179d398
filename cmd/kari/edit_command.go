package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kari/internal/api"
	"kari/internal/session"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var raw string
	var translated string

	cmd := &cobra.Command{
		Use:   "edit <segment-id>",
		Short: "Correct a segment's recognized or translated text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid segment id %q", args[0])
			}
			rawSet := cmd.Flags().Changed("raw")
			translatedSet := cmd.Flags().Changed("translated")
			if !rawSet && !translatedSet {
				return errors.New("nothing to edit: pass --raw and/or --translated")
			}

			return ctx.withService(cmd.Context(), func(svc *api.Service) error {
				if rawSet {
					if _, err := svc.Edit(cmd.Context(), id, session.FieldRaw, raw); err != nil {
						return err
					}
				}
				if translatedSet {
					if _, err := svc.Edit(cmd.Context(), id, session.FieldTranslated, translated); err != nil {
						return err
					}
				}
				if err := svc.Save(cmd.Context(), id); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"segmentId": id, "saved": true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved segment %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&raw, "raw", "", "Replacement recognized text")
	cmd.Flags().StringVar(&translated, "translated", "", "Replacement translation")
	return cmd
}
