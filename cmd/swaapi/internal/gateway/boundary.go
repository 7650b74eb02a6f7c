// Package gateway enforces the trust boundary for the client principal header.
//
// In production the Static Web Apps gateway is the only party allowed to set
// x-ms-client-principal. When the API is reachable without that gateway, the
// boundary either discards the header or, for local development, plays the
// gateway's part through an Emulator.
package gateway

import (
	"fmt"
	"net/http"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/auth"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/config"
)

// Mode selects how inbound principal headers are treated.
type Mode string

const (
	// ModeNone discards every inbound principal header. The zero value behaves as ModeNone.
	ModeNone Mode = config.GatewayModeNone
	// ModePlatform trusts the header because the hosting gateway sets it.
	ModePlatform Mode = config.GatewayModePlatform
	// ModeEmulator discards inbound headers and injects one from the emulator session cookie.
	ModeEmulator Mode = config.GatewayModeEmulator
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModePlatform, ModeEmulator:
		return Mode(s), nil
	case "":
		return ModeNone, nil
	}
	return "", fmt.Errorf("unknown gateway mode %q", s)
}

func (m Mode) String() string {
	if m == "" {
		return string(ModeNone)
	}
	return string(m)
}

// Boundary returns middleware applying mode to every request. emu is required
// for ModeEmulator and ignored otherwise. Unknown modes behave as ModeNone.
func Boundary(mode Mode, emu *Emulator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode == ModePlatform {
				next.ServeHTTP(w, r)
				return
			}

			r = r.Clone(r.Context())
			r.Header.Del(auth.HeaderName)

			if mode == ModeEmulator && emu != nil {
				if value, ok := emu.HeaderValue(r); ok {
					r.Header.Set(auth.HeaderName, value)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
