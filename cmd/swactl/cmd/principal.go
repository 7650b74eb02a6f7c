package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/pkg/sdk"
)

var principalCmd = &cobra.Command{
	Use:   "principal",
	Short: "Encode or decode x-ms-client-principal header values",
}

var (
	encodeProvider string
	encodeUserID   string
	encodeDetails  string
	encodeRoles    []string
)

var principalEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print a header value for the given identity",
	Example: `  swactl principal encode --provider github --user-id u1 --details Jane --role admin
  swactl data --principal "$(swactl principal encode --user-id u1 --details Jane)"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := sdk.EncodePrincipal(sdk.ClientPrincipal{
			IdentityProvider: encodeProvider,
			UserID:           encodeUserID,
			UserDetails:      encodeDetails,
			UserRoles:        encodeRoles,
		})
		if err != nil {
			return err
		}
		// Raw value only, so the output can be captured by a shell.
		_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
		return err
	},
}

var principalDecodeCmd = &cobra.Command{
	Use:   "decode [VALUE]",
	Short: "Print the identity in a header value (reads stdin when VALUE is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		if len(args) == 1 {
			value = args[0]
		} else {
			raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 64<<10))
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			value = strings.TrimSpace(string(raw))
		}

		cp, err := sdk.DecodePrincipal(value)
		if err != nil {
			return fmt.Errorf("invalid principal: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cp)
	},
}

func init() {
	principalEncodeCmd.Flags().StringVar(&encodeProvider, "provider", "github", "Identity provider")
	principalEncodeCmd.Flags().StringVar(&encodeUserID, "user-id", "", "User ID (required)")
	principalEncodeCmd.Flags().StringVar(&encodeDetails, "details", "", "User details (name or email)")
	principalEncodeCmd.Flags().StringSliceVar(&encodeRoles, "role", nil, "Role (repeatable)")
	_ = principalEncodeCmd.MarkFlagRequired("user-id")

	principalCmd.AddCommand(principalEncodeCmd)
	principalCmd.AddCommand(principalDecodeCmd)
	rootCmd.AddCommand(principalCmd)
}
