package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "swaapi",
	Short: "Backend API for an Azure Static Web Apps site",
	Long: `swaapi serves the /api endpoints behind an Azure Static Web Apps gateway.
Identity comes from the x-ms-client-principal header the gateway injects;
for local development the built-in emulator can play the gateway's part.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
			}
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML/JSON/TOML config file")
	rootCmd.PersistentFlags().String("server-addr", "", "Server bind address (env: SWA_SERVER_ADDR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: SWA_DEBUG)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format, json or text (env: SWA_LOG_FORMAT)")
	rootCmd.PersistentFlags().String("gateway-mode", "", "Gateway mode: platform, emulator or none (env: SWA_GATEWAY_MODE)")

	bindFlag("server_addr", "server-addr")
	bindFlag("debug", "debug")
	bindFlag("log_format", "log-format")
	bindFlag("gateway.mode", "gateway-mode")
}

// bindFlag lets a flag override the config key only when set explicitly.
func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
