package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the claim set the entry point requires on an access token.
type accessClaims struct {
	Username string `json:"username"`
	ClientID string `json:"client_id"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// JWTValidator verifies HS256 access tokens locally against the expected
// issuer and client. It needs no network round trip, so its only fault mode
// is misconfiguration.
type JWTValidator struct {
	secret   []byte
	issuer   string
	clientID string
}

// NewJWTValidator builds a validator for tokens issued by issuer to
// clientID and signed with secret.
func NewJWTValidator(secret, issuer, clientID string) *JWTValidator {
	return &JWTValidator{
		secret:   []byte(secret),
		issuer:   issuer,
		clientID: clientID,
	}
}

// Validate parses and verifies the credential. All parse and claim failures
// are denials; a missing signing secret is an internal fault.
func (v *JWTValidator) Validate(ctx context.Context, credential string) (*Principal, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("jwt validator: signing secret not configured")
	}
	if credential == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrDenied)
	}

	var claims accessClaims
	token, err := jwt.ParseWithClaims(credential, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDenied, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token not valid", ErrDenied)
	}
	if claims.ClientID != v.clientID {
		return nil, fmt.Errorf("%w: client_id mismatch", ErrDenied)
	}
	if claims.TokenUse != "access" {
		return nil, fmt.Errorf("%w: not an access token", ErrDenied)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%w: username claim missing", ErrDenied)
	}

	return &Principal{ClientID: claims.Username, Username: claims.Username}, nil
}
