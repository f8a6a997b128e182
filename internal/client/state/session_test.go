package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/fieldportal/internal/client/validation"
	"github.com/dmitrijs2005/fieldportal/internal/common"
)

func newSession(t *testing.T, f *fakeAPI) (*SessionStore, *credentials.MemoryRepository) {
	t.Helper()
	creds := credentials.NewMemoryRepository()
	s := NewSessionStore(f, creds, nil)
	t.Cleanup(s.Close)
	return s, creds
}

func storedToken(t *testing.T, creds credentials.Repository) string {
	t.Helper()
	tok, err := creds.Load(context.Background())
	require.NoError(t, err)
	return tok
}

func TestSessionLoad_NoCredential_ResolvesAnonymous(t *testing.T) {
	f := &fakeAPI{currentUserFn: func(context.Context) (*models.User, error) {
		t.Fatal("backend must not be asked without a token")
		return nil, nil
	}}
	s, _ := newSession(t, f)

	assert.False(t, s.Snapshot().Resolved)
	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.True(t, snap.Resolved)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.Session.IsAuthenticated)
	assert.NoError(t, snap.Err)
}

func TestSessionLoad_RestoresFromBackend(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := makeToken(t, "u1", "a@b.co", models.RoleAdmin, exp)

	f := &fakeAPI{currentUserFn: func(context.Context) (*models.User, error) {
		return &models.User{ID: "u1", Email: "a@b.co", Role: models.RoleOwner}, nil
	}}
	s, creds := newSession(t, f)
	require.NoError(t, creds.Save(context.Background(), token))

	var rec recorder[SessionSnapshot]
	s.Subscribe(rec.add)

	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.True(t, snap.Session.IsAuthenticated)
	assert.Equal(t, models.RoleOwner, snap.Session.Role, "backend is authoritative over claims")
	assert.True(t, exp.Equal(snap.Session.ExpiresAt))
	assert.Equal(t, token, f.Token())

	seen := rec.all()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsLoading)
	assert.False(t, seen[1].IsLoading)
}

func TestSessionLoad_ExpiredTokenIsDiscarded(t *testing.T) {
	token := makeToken(t, "u1", "a@b.co", models.RoleAdmin, time.Now().Add(-time.Minute))
	f := &fakeAPI{currentUserFn: func(context.Context) (*models.User, error) {
		t.Fatal("expired token must not be sent")
		return nil, nil
	}}
	s, creds := newSession(t, f)
	require.NoError(t, creds.Save(context.Background(), token))

	require.NoError(t, s.Load(context.Background()))

	assert.False(t, s.Snapshot().Session.IsAuthenticated)
	assert.True(t, s.Snapshot().Resolved)
	assert.Empty(t, storedToken(t, creds))
}

func TestSessionLoad_RejectedTokenClearsCredential(t *testing.T) {
	token := makeToken(t, "u1", "a@b.co", models.RoleAdmin, time.Now().Add(time.Hour))
	f := &fakeAPI{}
	f.currentUserFn = func(context.Context) (*models.User, error) { return nil, f.reject() }
	s, creds := newSession(t, f)
	require.NoError(t, creds.Save(context.Background(), token))

	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.Session.IsAuthenticated)
	assert.True(t, snap.Resolved)
	assert.False(t, snap.IsLoading)
	assert.Empty(t, storedToken(t, creds))
	assert.Empty(t, f.Token())
}

func TestSessionLoad_OfflineKeepsTokenIdentity(t *testing.T) {
	token := makeToken(t, "u1", "a@b.co", models.RoleManager, time.Now().Add(time.Hour))
	f := &fakeAPI{currentUserFn: func(context.Context) (*models.User, error) { return nil, offline() }}
	s, creds := newSession(t, f)
	require.NoError(t, creds.Save(context.Background(), token))

	err := s.Load(context.Background())
	require.ErrorIs(t, err, api.ErrUnavailable)

	snap := s.Snapshot()
	assert.True(t, snap.Session.IsAuthenticated)
	assert.Equal(t, "u1", snap.Session.UserID)
	assert.Equal(t, models.RoleManager, snap.Session.Role)
	assert.ErrorIs(t, snap.Err, api.ErrUnavailable)
	assert.Equal(t, token, storedToken(t, creds))
}

func TestSessionLoad_OfflineOpaqueTokenStaysAnonymous(t *testing.T) {
	f := &fakeAPI{currentUserFn: func(context.Context) (*models.User, error) { return nil, offline() }}
	s, creds := newSession(t, f)
	require.NoError(t, creds.Save(context.Background(), "opaque-token"))

	require.Error(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.Session.IsAuthenticated)
	assert.True(t, snap.Resolved)
	assert.Equal(t, "opaque-token", storedToken(t, creds), "kept for a later retry")
	assert.Empty(t, f.Token(), "anonymous requests carry no token")
}

func TestSessionLogin_ValidationNeverReachesBackend(t *testing.T) {
	f := &fakeAPI{}
	s, _ := newSession(t, f)

	err := s.Login(context.Background(), models.Credentials{Email: "not-an-email", Password: []byte("short")})
	require.ErrorIs(t, err, validation.ErrValidation)

	assert.Equal(t, 0, f.loginCalls)
	assert.ErrorIs(t, s.Snapshot().Err, validation.ErrValidation)
	assert.False(t, s.Snapshot().Session.IsAuthenticated)
}

func TestSessionLogin_Success(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := makeToken(t, "u9", "tech@acme.io", models.RoleMember, exp)
	f := &fakeAPI{loginFn: func(_ context.Context, email string, pw []byte) (*api.LoginResult, error) {
		assert.Equal(t, "tech@acme.io", email)
		assert.Equal(t, "s3cretpass", string(pw))
		return &api.LoginResult{Token: token, User: models.User{ID: "u9", Email: email, Role: models.RoleMember}}, nil
	}}
	s, creds := newSession(t, f)

	err := s.Login(context.Background(), models.Credentials{Email: "tech@acme.io", Password: []byte("s3cretpass")})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.True(t, snap.Resolved)
	assert.Equal(t, models.SessionFromUser(models.User{ID: "u9", Email: "tech@acme.io", Role: models.RoleMember}, snap.Session.ExpiresAt), snap.Session)
	assert.True(t, exp.Equal(snap.Session.ExpiresAt))
	assert.Equal(t, token, f.Token())
	assert.Equal(t, token, storedToken(t, creds))
}

func TestSessionLogin_FailureLeavesSignedOut(t *testing.T) {
	rejected := &api.APIError{Status: 401, Message: "Invalid credentials"}
	f := &fakeAPI{loginFn: func(context.Context, string, []byte) (*api.LoginResult, error) {
		return nil, rejected
	}}
	s, creds := newSession(t, f)

	err := s.Login(context.Background(), models.Credentials{Email: "a@b.co", Password: []byte("password1")})
	require.ErrorIs(t, err, api.ErrUnauthorized)

	snap := s.Snapshot()
	assert.False(t, snap.Session.IsAuthenticated)
	assert.True(t, snap.Resolved)
	assert.Equal(t, rejected, snap.Err)
	assert.Empty(t, storedToken(t, creds))
}

func TestSessionLogout_ClearsLocallyAndNotifiesInBackground(t *testing.T) {
	f := &fakeAPI{logoutErr: offline()}
	creds := credentials.NewMemoryRepository()
	s := NewSessionStore(f, creds, nil)

	require.NoError(t, s.Login(context.Background(), models.Credentials{Email: "a@b.co", Password: []byte("password1")}))
	require.True(t, s.Snapshot().Session.IsAuthenticated)

	require.NoError(t, s.Logout(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.Session.IsAuthenticated)
	assert.True(t, snap.Resolved)
	assert.NoError(t, snap.Err)
	assert.Empty(t, f.Token())
	assert.Empty(t, storedToken(t, creds))

	s.Close()
	assert.Equal(t, []string{"tok"}, f.loggedOut())
}

func TestSessionLogout_WithoutTokenSkipsBackend(t *testing.T) {
	f := &fakeAPI{}
	creds := credentials.NewMemoryRepository()
	s := NewSessionStore(f, creds, nil)

	require.NoError(t, s.Logout(context.Background()))
	s.Close()
	assert.Empty(t, f.loggedOut())
}

// A 401 on any authenticated request signs the session out and clears the
// stored credential.
func TestSession_UnauthorizedResponseInvalidates(t *testing.T) {
	f := &fakeAPI{}
	s, creds := newSession(t, f)
	require.NoError(t, s.Login(context.Background(), models.Credentials{Email: "a@b.co", Password: []byte("password1")}))
	require.Equal(t, "tok", storedToken(t, creds))

	f.tenantFn = func(context.Context) (*models.Tenant, error) { return nil, f.reject() }
	tenants := NewTenantStore(f, s, nil)
	t.Cleanup(tenants.Close)

	err := tenants.Load(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)

	snap := s.Snapshot()
	assert.False(t, snap.Session.IsAuthenticated)
	assert.ErrorIs(t, snap.Err, api.ErrUnauthorized)
	assert.Empty(t, storedToken(t, creds))
	assert.Empty(t, f.Token())

	assert.Equal(t, Resource[models.Tenant]{}, tenants.Snapshot(), "fetch result for the old identity is dropped")
}

func TestSessionWatchExpiry_Invalidates(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	token := makeToken(t, "u1", "a@b.co", models.RoleAdmin, exp)
	f := &fakeAPI{loginFn: func(context.Context, string, []byte) (*api.LoginResult, error) {
		return &api.LoginResult{Token: token, User: models.User{ID: "u1"}}, nil
	}}
	s, creds := newSession(t, f)
	require.NoError(t, s.Login(context.Background(), models.Credentials{Email: "a@b.co", Password: []byte("password1")}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var clock atomicTime
	clock.set(time.Now())
	s.now = clock.get
	go s.WatchExpiry(ctx, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.Snapshot().Session.IsAuthenticated)

	clock.set(exp.Add(time.Second))
	require.Eventually(t, func() bool {
		return !s.Snapshot().Session.IsAuthenticated
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, s.Snapshot().Err, common.ErrTokenExpired)
	assert.Empty(t, storedToken(t, creds))
}

func TestSessionClose_DropsLateResult(t *testing.T) {
	token := makeToken(t, "u1", "a@b.co", models.RoleAdmin, time.Now().Add(time.Hour))
	release := make(chan struct{})
	entered := make(chan struct{})
	f := &fakeAPI{currentUserFn: func(context.Context) (*models.User, error) {
		close(entered)
		<-release
		return &models.User{ID: "u1"}, nil
	}}
	creds := credentials.NewMemoryRepository()
	require.NoError(t, creds.Save(context.Background(), token))
	s := NewSessionStore(f, creds, nil)

	var rec recorder[SessionSnapshot]
	s.Subscribe(rec.add)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-entered

	s.Close()
	close(release)
	require.NoError(t, <-done)

	assert.Len(t, rec.all(), 1, "only the loading transition was published")
	assert.True(t, s.Snapshot().IsLoading)
}

func TestSessionLoad_RepositoryErrorIsSurfaced(t *testing.T) {
	boom := errors.New("disk gone")
	s := NewSessionStore(&fakeAPI{}, failingRepo{err: boom}, nil)
	t.Cleanup(s.Close)

	err := s.Load(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, s.Snapshot().Resolved)
	assert.ErrorIs(t, s.Snapshot().Err, boom)
}

func TestParseClaims(t *testing.T) {
	now := time.Now()

	_, err := parseClaims("not-a-jwt", now)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	c, err := parseClaims(makeToken(t, "u1", "a@b.co", models.RoleOwner, now.Add(time.Minute)), now)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.session().UserID)
	assert.Equal(t, models.RoleOwner, c.session().Role)

	_, err = parseClaims(makeToken(t, "u1", "a@b.co", models.RoleOwner, now.Add(-time.Minute)), now)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	_, err = parseClaims(makeToken(t, "", "a@b.co", models.RoleOwner, now.Add(time.Minute)), now)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

type failingRepo struct{ err error }

func (r failingRepo) Load(context.Context) (string, error) { return "", r.err }
func (r failingRepo) Save(context.Context, string) error    { return r.err }
func (r failingRepo) Clear(context.Context) error           { return r.err }
