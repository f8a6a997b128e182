package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/config"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/client/repositories/credentials"
)

// fakeAPI is an in-memory backend serving the records held in its fields.
type fakeAPI struct {
	mu             sync.Mutex
	token          string
	onUnauthorized func(error)

	user         models.User
	tenant       *models.Tenant
	subscription *models.Subscription
	loginErr     error
	registerErr  error
	pingErr      error
	revoked      bool

	registered []models.Registration
	logouts    []string
}

var _ api.Client = (*fakeAPI)(nil)

func (f *fakeAPI) Login(_ context.Context, email string, _ []byte) (*api.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	u := f.user
	u.Email = email
	return &api.LoginResult{Token: "tok-" + u.ID, User: u}, nil
}

func (f *fakeAPI) Register(_ context.Context, r models.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.Password = append([]byte(nil), r.Password...)
	f.registered = append(f.registered, r)
	return f.registerErr
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts = append(f.logouts, token)
	return nil
}

func (f *fakeAPI) CurrentUser(context.Context) (*models.User, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.user
	return &u, nil
}

func (f *fakeAPI) CurrentTenant(context.Context) (*models.Tenant, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tenant == nil {
		return nil, nil
	}
	t := *f.tenant
	return &t, nil
}

func (f *fakeAPI) CreateTenant(_ context.Context, name string) (*models.Tenant, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenant = &models.Tenant{TenantID: "t1", Name: name}
	t := *f.tenant
	return &t, nil
}

func (f *fakeAPI) CompleteOnboarding(context.Context) (*models.Tenant, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tenant == nil {
		return nil, &api.APIError{Status: http.StatusNotFound, Message: "Not Found"}
	}
	f.tenant.OnboardingCompleted = true
	t := *f.tenant
	return &t, nil
}

func (f *fakeAPI) CurrentSubscription(context.Context) (*models.Subscription, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscription == nil {
		return nil, nil
	}
	s := *f.subscription
	return &s, nil
}

func (f *fakeAPI) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

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

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

// check answers 401 once the token is revoked, notifying like the real client.
func (f *fakeAPI) check() error {
	f.mu.Lock()
	revoked, tok, fn := f.revoked, f.token, f.onUnauthorized
	f.mu.Unlock()
	if !revoked {
		return nil
	}
	err := &api.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	if fn != nil && tok != "" {
		fn(err)
	}
	return err
}

// syncBuffer is an io.Writer safe for the store callbacks that print from
// several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	b.buf.Reset()
	b.mu.Unlock()
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabasePath = ""
	return c
}

func newTestApp(t *testing.T, f *fakeAPI) (*App, *syncBuffer, *credentials.MemoryRepository) {
	t.Helper()
	out := &syncBuffer{}
	creds := credentials.NewMemoryRepository()
	a := newApp(testConfig(), f, creds, nil, strings.NewReader(""), out)
	t.Cleanup(a.Close)
	return a, out, creds
}

// stubInputs answers prompts in order and returns password for the password
// prompt.
func stubInputs(t *testing.T, password string, answers ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})

	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(io.Writer) ([]byte, error) {
		return []byte(password), nil
	}
}
