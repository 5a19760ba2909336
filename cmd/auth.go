package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth <production-id> <phone>",
	Short: "Check which view of a production a phone number gets",
	Args:  cobra.ExactArgs(2),
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

		result := env.Service.Authenticate(prod, args[1])
		out := map[string]any{
			"authenticated": result.Authenticated,
			"user_info":     result.User,
			"is_closed_set": result.IsClosedSet,
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
