// Package auth decodes the identity assertion forwarded by the hosting gateway.
//
// The gateway replaces any client-supplied value of HeaderName with its own
// Base64(JSON) document for authenticated callers. Nothing in this package
// verifies a signature: the header is only meaningful when the
// process sits behind a gateway that provides that stripping guarantee (see
// gateway.Boundary).
package auth

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// HeaderName is the platform-reserved header carrying the client principal.
const HeaderName = "x-ms-client-principal"

var (
	// ErrHeaderAbsent is returned when the request carries no principal header.
	ErrHeaderAbsent = errors.New("client principal header absent")

	// ErrMalformedPrincipal matches every DecodeError.
	ErrMalformedPrincipal = errors.New("malformed client principal")
)

// DecodeError reports which decoding stage rejected the header value.
type DecodeError struct {
	// Stage is one of "base64", "json" or "schema".
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("client principal %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedPrincipal) true for any stage.
func (e *DecodeError) Is(target error) bool { return target == ErrMalformedPrincipal }

// ClientPrincipal is the decoded identity assertion.
type ClientPrincipal struct {
	IdentityProvider string   `json:"identityProvider"`
	UserID           string   `json:"userId"`
	UserDetails      string   `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
}

//go:embed clientprincipal.schema.json
var principalSchemaJSON string

const principalSchemaURL = "clientprincipal.schema.json"

var principalSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(principalSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("auth: parse principal schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(principalSchemaURL, doc); err != nil {
		panic(fmt.Sprintf("auth: add principal schema: %v", err))
	}
	sch, err := c.Compile(principalSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("auth: compile principal schema: %v", err))
	}
	return sch
}

// Decode turns a raw header value into a ClientPrincipal.
//
// An empty value yields ErrHeaderAbsent. Any value that does not decode to
// the principal shape yields a *DecodeError.
// UserRoles is never nil on success.
func Decode(value string) (*ClientPrincipal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrHeaderAbsent
	}

	raw, err := decodeBase64(value)
	if err != nil {
		return nil, &DecodeError{Stage: "base64", Err: err}
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Stage: "json", Err: err}
	}
	if err := principalSchema.Validate(inst); err != nil {
		return nil, &DecodeError{Stage: "schema", Err: err}
	}

	var cp ClientPrincipal
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, &DecodeError{Stage: "json", Err: err}
	}
	if cp.UserRoles == nil {
		cp.UserRoles = []string{}
	}
	return &cp, nil
}

// Encode produces the header value the gateway would send for cp.
func Encode(cp ClientPrincipal) (string, error) {
	if cp.UserRoles == nil {
		cp.UserRoles = []string{}
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return "", fmt.Errorf("marshal client principal: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// decodeBase64 accepts padded and unpadded input in both the standard and the
// URL-safe alphabet.
func decodeBase64(s string) ([]byte, error) {
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
