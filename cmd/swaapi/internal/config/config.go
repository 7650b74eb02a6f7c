package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. SWA_SERVER_ADDR.
const EnvPrefix = "SWA"

// Gateway modes. They mirror gateway.Mode; config stays free of server imports.
const (
	GatewayModePlatform = "platform"
	GatewayModeEmulator = "emulator"
	GatewayModeNone     = "none"
)

// Config holds the application configuration
type Config struct {
	// Server bind address (host:port)
	ServerAddr string `mapstructure:"server_addr"`

	// Enable debug logging
	Debug bool `mapstructure:"debug"`

	// LogFormat is "json" or "text"
	LogFormat string `mapstructure:"log_format"`

	// Grace period for in-flight requests on shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Gateway       GatewayConfig       `mapstructure:"gateway"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// GatewayConfig selects how the client principal header is trusted.
//
//   - platform: the hosting gateway strips client-supplied principal headers and
//     injects its own. Only valid when the process is unreachable except through it.
//   - emulator: local stand-in for the gateway, serving /.auth/* and injecting the
//     header from a signed session cookie.
//   - none: no gateway; the header is always discarded.
type GatewayConfig struct {
	Mode string `mapstructure:"mode"`

	// CookieHashKey signs emulator session cookies. Random per process when empty.
	CookieHashKey string `mapstructure:"cookie_hash_key"`
	// CookieBlockKey encrypts emulator session cookies when set (16, 24 or 32 bytes).
	CookieBlockKey string `mapstructure:"cookie_block_key"`

	Emulator EmulatorConfig `mapstructure:"emulator"`
}

// EmulatorConfig is the identity the emulator signs in.
type EmulatorConfig struct {
	IdentityProvider string   `mapstructure:"identity_provider"`
	UserID           string   `mapstructure:"user_id"`
	UserDetails      string   `mapstructure:"user_details"`
	Roles            []string `mapstructure:"roles"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ObservabilityConfig holds OpenTelemetry export settings. An empty
// OTLPEndpoint disables export.
type ObservabilityConfig struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPProtocol   string `mapstructure:"otlp_protocol"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`
}

var defaults = map[string]any{
	"server_addr":                        "localhost:7071",
	"debug":                              false,
	"log_format":                         "json",
	"shutdown_timeout":                   "10s",
	"gateway.mode":                       GatewayModeNone,
	"gateway.cookie_hash_key":            "",
	"gateway.cookie_block_key":           "",
	"gateway.emulator.identity_provider": "github",
	"gateway.emulator.user_id":           "",
	"gateway.emulator.user_details":      "",
	"gateway.emulator.roles":             []string{},
	"cors.allowed_origins":               []string{"http://localhost:3000", "http://localhost:4280"},
	"observability.otlp_endpoint":        "",
	"observability.otlp_protocol":        "http/protobuf",
	"observability.otlp_insecure":        false,
	"observability.service_name":         "swaapi",
	"observability.service_version":      "dev",
	"observability.environment":          "development",
}

// Load reads configuration from the global viper instance: defaults, then an
// already-read config file, then SWA_ prefixed environment variables, then any
// flags bound by the caller.
func Load() (*Config, error) {
	v := viper.GetViper()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	cfg.Gateway.Emulator.Roles = trimAll(cfg.Gateway.Emulator.Roles)
	cfg.CORS.AllowedOrigins = trimAll(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server_addr is required")
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}

	switch c.Gateway.Mode {
	case GatewayModePlatform, GatewayModeNone:
	case GatewayModeEmulator:
		if c.Gateway.Emulator.UserDetails == "" {
			return fmt.Errorf("gateway.emulator.user_details is required in emulator mode")
		}
	default:
		return fmt.Errorf("gateway.mode must be one of platform, emulator, none; got %q", c.Gateway.Mode)
	}

	if n := len(c.Gateway.CookieBlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("gateway.cookie_block_key must be 16, 24 or 32 bytes, got %d", n)
	}

	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
