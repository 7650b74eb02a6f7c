package sdk

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PrincipalHeader is the header the platform gateway injects.
const PrincipalHeader = "x-ms-client-principal"

// EncodePrincipal renders cp as a header value (standard Base64 of its JSON).
// Nil roles are sent as an empty array.
func EncodePrincipal(cp ClientPrincipal) (string, error) {
	if cp.UserID == "" {
		return "", errors.New("user ID is required")
	}
	if cp.UserRoles == nil {
		cp.UserRoles = []string{}
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return "", fmt.Errorf("marshal principal: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// principalDocument mirrors ClientPrincipal with pointer fields so that
// missing members can be told apart from empty ones.
type principalDocument struct {
	IdentityProvider *string  `json:"identityProvider"`
	UserID           *string  `json:"userId"`
	UserDetails      *string  `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
}

// DecodePrincipal parses a header value with the same rules swaapi applies:
// a JSON object with string identityProvider, userId and userDetails members,
// a non-empty userId, and userRoles absent, null or an array of strings.
// It accepts standard and URL-safe Base64, padded or not.
func DecodePrincipal(value string) (*ClientPrincipal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty principal")
	}

	var raw []byte
	var err error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if raw, err = enc.DecodeString(value); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	var doc *principalDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	switch {
	case doc == nil:
		return nil, errors.New("principal is not a JSON object")
	case doc.IdentityProvider == nil:
		return nil, errors.New("principal has no identityProvider")
	case doc.UserID == nil || *doc.UserID == "":
		return nil, errors.New("principal has no userId")
	case doc.UserDetails == nil:
		return nil, errors.New("principal has no userDetails")
	}

	roles := doc.UserRoles
	if roles == nil {
		roles = []string{}
	}
	return &ClientPrincipal{
		IdentityProvider: *doc.IdentityProvider,
		UserID:           *doc.UserID,
		UserDetails:      *doc.UserDetails,
		UserRoles:        roles,
	}, nil
}
