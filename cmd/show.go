package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var showPhone string

var showCmd = &cobra.Command{
	Use:   "show <production-id>",
	Short: "Show a production, redacted unless a matching phone is given",
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

		result := env.Service.Authenticate(prod, showPhone)
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showPhone, "phone", "", "caller phone number for authentication")
	rootCmd.AddCommand(showCmd)
}
