package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/callsheet-cli/internal/enrich"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <production-id>",
	Short: "Enrich a production's locations via the knowledge service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		prod, err := env.Service.GetProduction(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if _, err := env.Service.Enrich(cmd.Context(), prod); err != nil {
			return err
		}

		complete := 0
		for _, loc := range prod.Locations {
			if !enrich.NeedsEnrichment(loc.GemData) {
				complete++
			}
		}
		fmt.Printf("%s: %d/%d locations fully enriched\n", prod.Title, complete, len(prod.Locations))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
