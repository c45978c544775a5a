package auth

import (
	"context"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	pkgapi "github.com/iudanet/offlinedesk/pkg/api"
)

//go:generate moq -out token_source_mock.go . TokenSource

// TokenSource supplies the bearer credential for outgoing requests.
// An empty token with a nil error means "not logged in".
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// APIClient is the part of the remote API the auth service calls
type APIClient interface {
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error)
}

// Store persists the credential; ClearAll wipes cached data on logout
type Store interface {
	storage.AuthStorage
	ClearAll(ctx context.Context) error
}
