package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List productions grouped by title",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		groups, err := env.Service.ListGroupedProductions(cmd.Context())
		if err != nil {
			return err
		}

		for _, group := range groups {
			fmt.Println(group.Title)
			for _, day := range group.Days {
				fmt.Printf("  Day %d  %s  %s\n", day.ShootDay, day.Date, day.ID)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
