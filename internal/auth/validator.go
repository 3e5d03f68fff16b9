// Package auth turns a bearer credential into a trusted principal.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrDenied marks a credential that was inspected and rejected: missing,
// expired, bad signature, or issuer/client mismatch. Any validator error
// that does not wrap ErrDenied is an internal fault, and the gateway maps
// the two to different response families.
var ErrDenied = errors.New("credential denied")

// Principal is the authenticated identity derived from a validated
// credential. It is immutable and scoped to a single request.
type Principal struct {
	ClientID string
	Username string
}

// Validator inspects a bearer credential and returns a principal or an
// error. Implementations must be side-effect-free toward the event pipeline
// and must not cache results between requests; every request is validated
// independently so grants and denials are never stale.
type Validator interface {
	Validate(ctx context.Context, credential string) (*Principal, error)
}

// ExtractBearer pulls the raw credential out of an Authorization header
// value. A "Bearer " prefix is optional; some clients send the token bare.
func ExtractBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
