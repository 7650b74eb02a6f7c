package cmd

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity the server resolves for this caller",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		info, err := client.UserInfo(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch user info: %w", err)
		}

		pterm.DefaultSection.Println("Identity")
		if !info.IsAuthenticated {
			pterm.Info.Println("Not authenticated (anonymous caller)")
			return nil
		}

		roles := strings.Join(info.Roles, ", ")
		if roles == "" {
			roles = "-"
		}
		return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
			{"FIELD", "VALUE"},
			{"User ID", deref(info.UserID)},
			{"Name", deref(info.Name)},
			{"Email", deref(info.Email)},
			{"Provider", deref(info.Provider)},
			{"Roles", roles},
		}).Render()
	},
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
