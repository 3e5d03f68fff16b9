package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DirectoryValidator delegates credential inspection to an external
// identity directory over HTTP. The directory decides; this client only
// separates a denial decision from a directory failure. A hung directory is
// bounded by the client timeout and resolves to the fault path.
type DirectoryValidator struct {
	baseURL    string
	httpClient *http.Client
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// NewDirectoryValidator builds a validator backed by the directory at
// baseURL. timeout bounds the whole round trip.
func NewDirectoryValidator(baseURL string, timeout time.Duration) *DirectoryValidator {
	return &DirectoryValidator{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Validate introspects the credential. valid=false is a denial; transport
// errors, non-2xx statuses, and undecodable bodies are internal faults.
func (v *DirectoryValidator) Validate(ctx context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrDenied)
	}

	body, err := json.Marshal(introspectRequest{Token: credential})
	if err != nil {
		return nil, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/api/v1/auth/introspect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("identity directory returned status %d", resp.StatusCode)
	}

	var result introspectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode introspect response: %w", err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: directory rejected credential", ErrDenied)
	}

	clientID := result.ClientID
	if clientID == "" {
		clientID = result.Username
	}
	if clientID == "" {
		return nil, fmt.Errorf("%w: directory returned no subject", ErrDenied)
	}

	return &Principal{ClientID: clientID, Username: result.Username}, nil
}
