package api

import (
	"context"

	"github.com/dmitrijs2005/fieldportal/internal/client/models"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Client is the backend contract used by the state stores.
//
// Lookups that find nothing (no tenant yet, no subscription record) return
// (nil, nil) rather than ErrNotFound.
type Client interface {
	Login(ctx context.Context, email string, password []byte) (*LoginResult, error)
	Register(ctx context.Context, r models.Registration) error
	// Logout tells the backend to revoke token. It does not touch the token
	// held by the client.
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context) (*models.User, error)

	CurrentTenant(ctx context.Context) (*models.Tenant, error)
	CreateTenant(ctx context.Context, name string) (*models.Tenant, error)
	CompleteOnboarding(ctx context.Context) (*models.Tenant, error)

	CurrentSubscription(ctx context.Context) (*models.Subscription, error)

	Ping(ctx context.Context) error

	SetToken(token string)
	Token() string
	OnUnauthorized(fn func(err error))
}
