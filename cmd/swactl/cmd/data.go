package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/pkg/sdk"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Fetch the protected data record",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		data, err := client.ProtectedData(cmd.Context())
		if sdk.IsUnauthorized(err) {
			pterm.Warning.Println("Server rejected the request: authentication required")
			pterm.Info.Println("Pass --principal, or sign in through /.auth/login/<provider> and pass --session")
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to fetch protected data: %w", err)
		}

		pterm.DefaultSection.Println("Protected Data")
		pterm.Success.Println(data.Message)
		pterm.Printf("User ID:     %s\n", data.UserID)
		pterm.Printf("User number: %d\n", data.UserNumber)
		pterm.Printf("Generated:   %s\n", data.Timestamp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
}
