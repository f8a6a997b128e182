package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/fieldportal/internal/client/validation"
	"github.com/dmitrijs2005/fieldportal/internal/common"
	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

// DefaultLogoutTimeout bounds the background logout notification.
const DefaultLogoutTimeout = 5 * time.Second

// SessionSnapshot is what the session store publishes.
//
// Resolved turns true after the first Load, Login, Logout or Invalidate
// finishes; until then the session is unknown rather than anonymous.
type SessionSnapshot struct {
	Session   models.Session
	IsLoading bool
	Resolved  bool
	Err       error
}

// SessionStore owns the signed-in identity and the persisted credential.
type SessionStore struct {
	obs    observable[SessionSnapshot]
	api    api.Client
	creds  credentials.Repository
	logger logging.Logger

	now           func() time.Time
	logoutTimeout time.Duration
	background    sync.WaitGroup
}

// NewSessionStore wires the store to client and registers it as the
// client's unauthorized handler: any 401/403 on the current token signs the
// session out locally.
func NewSessionStore(client api.Client, creds credentials.Repository, logger logging.Logger) *SessionStore {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &SessionStore{
		api:           client,
		creds:         creds,
		logger:        logger.With("component", "session"),
		now:           time.Now,
		logoutTimeout: DefaultLogoutTimeout,
	}
	client.OnUnauthorized(func(err error) {
		s.Invalidate(context.Background(), err)
	})
	return s
}

func (s *SessionStore) Snapshot() SessionSnapshot {
	return s.obs.Snapshot()
}

func (s *SessionStore) Subscribe(fn func(SessionSnapshot)) (unsubscribe func()) {
	return s.obs.Subscribe(fn)
}

// Load restores the session from the persisted credential.
//
// An expired or malformed token is discarded. A token the backend rejects is
// discarded as well. When the backend cannot be reached the identity carried
// in the token is kept and the error is reported in the snapshot.
func (s *SessionStore) Load(ctx context.Context) error {
	gen, ok := s.obs.start(func(cur SessionSnapshot) SessionSnapshot {
		cur.IsLoading = true
		cur.Err = nil
		return cur
	})
	if !ok {
		return common.ErrStoreClosed
	}

	token, err := s.creds.Load(ctx)
	if err != nil {
		err = fmt.Errorf("restore session: %w", err)
		s.resolve(gen, models.Session{}, err)
		return err
	}
	if token == "" {
		s.logger.Debug(ctx, "no stored credential")
		s.resolve(gen, models.Session{}, nil)
		return nil
	}

	claims, claimsErr := parseClaims(token, s.now())
	if errors.Is(claimsErr, common.ErrTokenExpired) {
		s.logger.Info(ctx, "stored token expired")
		_ = s.clearLocal(ctx)
		s.resolve(gen, models.Session{}, nil)
		return nil
	}

	s.api.SetToken(token)
	user, err := s.api.CurrentUser(ctx)
	switch {
	case err == nil:
		s.logger.Info(ctx, "session restored", "user_id", user.ID, "role", user.Role)
		s.resolve(gen, models.SessionFromUser(*user, claims.expiresAt()), nil)
		return nil

	case errors.Is(err, api.ErrUnauthorized):
		s.logger.Info(ctx, "stored token rejected")
		_ = s.clearLocal(ctx)
		s.resolve(gen, models.Session{}, nil)
		return nil

	case claimsErr == nil:
		s.logger.Warn(ctx, "backend unavailable, using identity from token", "error", err)
		s.resolve(gen, claims.session(), err)
		return err

	default:
		// Stay anonymous; the credential is kept for the next start but
		// later requests must not carry it.
		s.logger.Warn(ctx, "could not confirm stored token", "error", err)
		s.api.SetToken("")
		s.resolve(gen, models.Session{}, err)
		return err
	}
}

// Login validates c, authenticates and persists the token. On any failure the
// session is left signed out and the error is returned and published.
// Validation failures never reach the backend.
func (s *SessionStore) Login(ctx context.Context, c models.Credentials) error {
	if err := validation.Credentials(c); err != nil {
		s.obs.update(func(cur SessionSnapshot) SessionSnapshot {
			cur.Err = err
			return cur
		})
		return err
	}

	gen, ok := s.obs.start(func(cur SessionSnapshot) SessionSnapshot {
		cur.IsLoading = true
		cur.Err = nil
		return cur
	})
	if !ok {
		return common.ErrStoreClosed
	}

	res, err := s.api.Login(ctx, c.Email, c.Password)
	if err != nil {
		s.logger.Info(ctx, "login failed", "email", c.Email, "error", err)
		_ = s.clearLocal(ctx)
		s.resolve(gen, models.Session{}, err)
		return err
	}

	claims, _ := parseClaims(res.Token, s.now())
	s.api.SetToken(res.Token)
	if err := s.creds.Save(ctx, res.Token); err != nil {
		s.logger.Warn(ctx, "could not persist session token", "error", err)
	}

	s.logger.Info(ctx, "signed in", "user_id", res.User.ID, "role", res.User.Role)
	s.resolve(gen, models.SessionFromUser(res.User, claims.expiresAt()), nil)
	return nil
}

// Logout signs out locally, then tells the backend in the background. The
// local state is cleared whatever the backend says.
func (s *SessionStore) Logout(ctx context.Context) error {
	token := s.api.Token()
	err := s.signOut(ctx, nil)

	if token != "" {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			ctx, cancel := context.WithTimeout(context.Background(), s.logoutTimeout)
			defer cancel()
			if err := s.api.Logout(ctx, token); err != nil {
				s.logger.Debug(ctx, "logout notification failed", "error", err)
			}
		}()
	}
	return err
}

// Invalidate signs out locally because the session is no longer valid.
// reason ends up in the snapshot's Err.
func (s *SessionStore) Invalidate(ctx context.Context, reason error) {
	s.logger.Info(ctx, "session invalidated", "reason", reason)
	_ = s.signOut(ctx, reason)
}

// WatchExpiry checks the session's expiry every interval and invalidates it
// once the token has expired. It blocks until ctx is done.
func (s *SessionStore) WatchExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap := s.Snapshot()
			if snap.Session.IsAuthenticated && snap.Session.Expired(s.now()) {
				s.Invalidate(ctx, common.ErrTokenExpired)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close stops publishing, drops results of fetches still in flight and waits
// for background logout notifications.
func (s *SessionStore) Close() {
	s.obs.close()
	s.background.Wait()
}

func (s *SessionStore) signOut(ctx context.Context, reason error) error {
	s.obs.start(func(SessionSnapshot) SessionSnapshot {
		return SessionSnapshot{Resolved: true, Err: reason}
	})
	return s.clearLocal(ctx)
}

func (s *SessionStore) clearLocal(ctx context.Context) error {
	s.api.SetToken("")
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.Error(ctx, "could not clear stored credential", "error", err)
		return err
	}
	return nil
}

func (s *SessionStore) resolve(gen uint64, session models.Session, err error) {
	s.obs.commit(gen, func(SessionSnapshot) SessionSnapshot {
		return SessionSnapshot{Session: session, Resolved: true, Err: err}
	})
}

// tokenClaims are the claims the backend puts in its session tokens. The
// client never verifies them; the backend does.
type tokenClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) expiresAt() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func (c *tokenClaims) session() models.Session {
	return models.Session{
		UserID:          c.Subject,
		Email:           c.Email,
		Role:            c.Role,
		IsAuthenticated: true,
		ExpiresAt:       c.expiresAt(),
	}
}

// parseClaims decodes token without verifying it. Tokens that are not JWTs
// yield common.ErrInvalidToken; expired ones yield common.ErrTokenExpired
// together with the claims.
func parseClaims(token string, now time.Time) (*tokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	if exp := claims.expiresAt(); !exp.IsZero() && !now.Before(exp) {
		return claims, common.ErrTokenExpired
	}
	return claims, nil
}
