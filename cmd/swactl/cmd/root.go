package cmd

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/pkg/sdk"
)

// sessionCookieName is the emulator's session cookie.
const sessionCookieName = "StaticWebAppsAuthCookie"

var (
	serverURL string
	principal string
	session   string
)

var rootCmd = &cobra.Command{
	Use:   "swactl",
	Short: "swactl - client for the swaapi endpoints",
	Long: `swactl calls a running swaapi server and inspects client principal headers.
Identity is supplied either as a raw x-ms-client-principal value (--principal) or as
an emulator session cookie (--session).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if principal == "" {
			principal = os.Getenv("SWA_PRINCIPAL")
		}
		if session == "" {
			session = os.Getenv("SWA_SESSION")
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:7071", "swaapi server URL")
	rootCmd.PersistentFlags().StringVar(&principal, "principal", "", "x-ms-client-principal header value to send (env: SWA_PRINCIPAL)")
	rootCmd.PersistentFlags().StringVar(&session, "session", "", "Emulator session cookie value (env: SWA_SESSION)")
}

// newClient builds an SDK client carrying whichever identity the flags supply.
func newClient() (*sdk.Client, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}

	if session != "" {
		u, err := url.Parse(serverURL)
		if err != nil {
			return nil, fmt.Errorf("invalid server URL: %w", err)
		}
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		jar.SetCookies(u, []*http.Cookie{{Name: sessionCookieName, Value: session, Path: "/"}})
		httpClient.Jar = jar
	}

	opts := []sdk.ClientOption{sdk.WithHTTPClient(httpClient)}
	if principal != "" {
		opts = append(opts, sdk.WithPrincipalHeader(principal))
	}
	return sdk.NewClient(serverURL, opts...), nil
}
