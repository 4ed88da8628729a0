// Package token parses and verifies bearer credentials and extracts
// identity claims. Validation is deterministic given the signing key and a
// clock; no I/O happens here.
package token

import (
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/bmsedge/edge-gateway/internal/clock"
)

// MinSecretLength is the minimum HMAC secret length in bytes (256 bits).
const MinSecretLength = 32

// Validation failure classes. Callers distinguish them with errors.Is; the
// error text doubles as the client-facing message.
var (
	ErrMalformed    = errors.New("malformed token")
	ErrBadSignature = errors.New("invalid token signature")
	ErrExpired      = errors.New("token expired")
	ErrFailed       = errors.New("authentication failed")
)

// Identity is the result of a successful validation. It lives only for the
// current request and travels downstream as headers.
type Identity struct {
	Subject string
	Role    string
	// Tenant is set when the credential encodes a tenant claim.
	Tenant string
}

// Validator verifies HS256-signed tokens against a shared secret.
type Validator struct {
	key   jwk.Key
	clock clock.Clock
}

// NewValidator creates a validator for the given signing secret. Secrets
// shorter than MinSecretLength are rejected.
func NewValidator(secret []byte, clk clock.Clock) (*Validator, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes (256 bits), got %d",
			MinSecretLength, len(secret))
	}
	key, err := jwk.FromRaw(secret)
	if err != nil {
		return nil, fmt.Errorf("build signing key: %w", err)
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Validator{key: key, clock: clk}, nil
}

// Validate parses raw, verifies its signature and expiry, and returns the
// identity it asserts. Failures map onto exactly one of the exported error
// classes.
func (v *Validator) Validate(raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrMalformed
	}

	// Parse without verification first so structural garbage is reported
	// as malformed rather than as a signature failure.
	tok, err := jwt.Parse([]byte(raw), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if _, err := jws.Verify([]byte(raw), jws.WithKey(jwa.HS256, v.key)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	if err := jwt.Validate(tok, jwt.WithClock(v.clock)); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	// jwt.Validate only checks expiry when the claim is present. A
	// credential without one would never expire; require it.
	if tok.Expiration().IsZero() {
		return nil, fmt.Errorf("%w: no expiration claim", ErrFailed)
	}

	role, _ := StringClaim(tok, "role")
	tenant, _ := StringClaim(tok, "tenant")

	return &Identity{
		Subject: tok.Subject(),
		Role:    role,
		Tenant:  tenant,
	}, nil
}

// StringClaim returns the named claim as a string, reporting whether it is
// present. Non-string values are treated as absent.
func StringClaim(tok jwt.Token, name string) (string, bool) {
	v, ok := tok.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
