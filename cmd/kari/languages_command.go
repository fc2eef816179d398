package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kari/internal/api"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "languages",
		Short:       "List supported source languages",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := api.Languages()
			if ctx.jsonOutput() {
				return writeJSON(cmd, langs)
			}
			rows := make([][]string, 0, len(langs))
			for _, l := range langs {
				rows = append(rows, []string{l.Key, l.Name, l.NativeName, l.RecognitionModelID})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Key", "Language", "Native", "Model"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
