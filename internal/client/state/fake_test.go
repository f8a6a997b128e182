package state

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
)

// fakeAPI is a hand-written api.Client. Unset hooks answer with zero values.
type fakeAPI struct {
	mu             sync.Mutex
	token          string
	onUnauthorized func(error)

	loginFn        func(ctx context.Context, email string, password []byte) (*api.LoginResult, error)
	currentUserFn  func(ctx context.Context) (*models.User, error)
	tenantFn       func(ctx context.Context) (*models.Tenant, error)
	createTenantFn func(ctx context.Context, name string) (*models.Tenant, error)
	completeFn     func(ctx context.Context) (*models.Tenant, error)
	subscriptionFn func(ctx context.Context) (*models.Subscription, error)
	logoutErr      error

	loginCalls   int
	logoutTokens []string
}

var _ api.Client = (*fakeAPI)(nil)

func (f *fakeAPI) Login(ctx context.Context, email string, password []byte) (*api.LoginResult, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.loginFn
	f.mu.Unlock()
	if fn == nil {
		return &api.LoginResult{Token: "tok"}, nil
	}
	return fn(ctx, email, password)
}

func (f *fakeAPI) Register(context.Context, models.Registration) error { return nil }

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutTokens = append(f.logoutTokens, token)
	return f.logoutErr
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*models.User, error) {
	if f.currentUserFn == nil {
		return &models.User{}, nil
	}
	return f.currentUserFn(ctx)
}

func (f *fakeAPI) CurrentTenant(ctx context.Context) (*models.Tenant, error) {
	if f.tenantFn == nil {
		return nil, nil
	}
	return f.tenantFn(ctx)
}

func (f *fakeAPI) CreateTenant(ctx context.Context, name string) (*models.Tenant, error) {
	return f.createTenantFn(ctx, name)
}

func (f *fakeAPI) CompleteOnboarding(ctx context.Context) (*models.Tenant, error) {
	return f.completeFn(ctx)
}

func (f *fakeAPI) CurrentSubscription(ctx context.Context) (*models.Subscription, error) {
	if f.subscriptionFn == nil {
		return nil, nil
	}
	return f.subscriptionFn(ctx)
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

func (f *fakeAPI) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeAPI) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeAPI) OnUnauthorized(fn func(error)) {
	f.mu.Lock()
	f.onUnauthorized = fn
	f.mu.Unlock()
}

// reject answers like the backend does for a revoked token, including the
// unauthorized callback the real client makes.
func (f *fakeAPI) reject() error {
	err := &api.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	f.mu.Lock()
	fn, tok := f.onUnauthorized, f.token
	f.mu.Unlock()
	if fn != nil && tok != "" {
		fn(err)
	}
	return err
}

func (f *fakeAPI) loggedOut() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.logoutTokens...)
}

func offline() error {
	return &api.APIError{Status: 0, Message: api.NetworkErrorMessage}
}

func makeToken(t *testing.T, sub, email string, role models.Role, exp time.Time) string {
	t.Helper()
	claims := tokenClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// recorder collects published snapshots.
type recorder[T any] struct {
	mu   sync.Mutex
	seen []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.seen = append(r.seen, v)
	r.mu.Unlock()
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.seen...)
}

type atomicTime struct {
	mu sync.Mutex
	t  time.Time
}

func (a *atomicTime) set(t time.Time) {
	a.mu.Lock()
	a.t = t
	a.mu.Unlock()
}

func (a *atomicTime) get() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.t
}
