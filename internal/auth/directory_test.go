package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryValidator_Valid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/introspect", r.URL.Path)

		var req introspectRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tok-1", req.Token)

		json.NewEncoder(w).Encode(introspectResponse{
			Valid:    true,
			Username: "user-9",
			ClientID: "client-9",
		})
	}))
	defer srv.Close()

	v := NewDirectoryValidator(srv.URL, time.Second)
	principal, err := v.Validate(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "client-9", principal.ClientID)
	assert.Equal(t, "user-9", principal.Username)
}

func TestDirectoryValidator_Rejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(introspectResponse{Valid: false})
	}))
	defer srv.Close()

	v := NewDirectoryValidator(srv.URL, time.Second)
	principal, err := v.Validate(context.Background(), "tok-1")
	assert.Nil(t, principal)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestDirectoryValidator_EmptyCredential(t *testing.T) {
	v := NewDirectoryValidator("http://unused.local", time.Second)
	_, err := v.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrDenied)
}

func TestDirectoryValidator_ServerErrorIsFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "directory exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewDirectoryValidator(srv.URL, time.Second)
	_, err := v.Validate(context.Background(), "tok-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDenied)
}

func TestDirectoryValidator_BadBodyIsFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	v := NewDirectoryValidator(srv.URL, time.Second)
	_, err := v.Validate(context.Background(), "tok-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDenied)
}

func TestDirectoryValidator_UnreachableIsFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately: connection refused

	v := NewDirectoryValidator(srv.URL, time.Second)
	_, err := v.Validate(context.Background(), "tok-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDenied)
}

func TestDirectoryValidator_TimeoutIsFault(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	v := NewDirectoryValidator(srv.URL, 50*time.Millisecond)
	_, err := v.Validate(context.Background(), "tok-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDenied)
}
