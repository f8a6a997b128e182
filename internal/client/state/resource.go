package state

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/common"
	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

// Resource is the snapshot published by the tenant and subscription stores.
// A nil Value with Loaded set means the backend has no record.
//
// UserID names the session the snapshot belongs to. Readers holding a
// session snapshot for another user must treat the resource as not loaded:
// stores and their readers are notified in no particular order.
type Resource[T any] struct {
	Value     *T
	IsLoading bool
	Loaded    bool
	Err       error
	UserID    string
}

// For returns r if it belongs to userID and an empty, not loaded resource
// otherwise.
func (r Resource[T]) For(userID string) Resource[T] {
	if r.UserID != userID {
		return Resource[T]{UserID: userID}
	}
	return r
}

// identity is the part of a session that a session-bound store cares about.
type identity struct {
	userID        string
	authenticated bool
}

func identityOf(s models.Session) identity {
	return identity{userID: s.UserID, authenticated: s.IsAuthenticated}
}

// owner is the UserID stamped on resources fetched for this identity.
func (id identity) owner() string {
	if !id.authenticated {
		return ""
	}
	return id.userID
}

// boundStore holds one record fetched for the current session.
type boundStore[T any] struct {
	obs     observable[Resource[T]]
	session *SessionStore
	fetch   func(ctx context.Context) (*T, error)
	// merge combines the previous and the freshly fetched record. nil keeps
	// the fetched one.
	merge  func(prev, next *T) *T
	logger logging.Logger

	mu    sync.Mutex
	ident identity
	unsub func()
}

func (b *boundStore[T]) init(session *SessionStore, logger logging.Logger) {
	b.session = session
	b.logger = logger

	b.mu.Lock()
	b.unsub = session.Subscribe(b.follow)
	b.ident = identityOf(session.Snapshot().Session)
	b.mu.Unlock()
}

// follow resets the store whenever the identity behind the session changes.
func (b *boundStore[T]) follow(snap SessionSnapshot) {
	id := identityOf(snap.Session)

	b.mu.Lock()
	changed := id != b.ident
	b.ident = id
	b.mu.Unlock()

	if changed {
		b.obs.start(func(Resource[T]) Resource[T] { return Resource[T]{UserID: id.owner()} })
	}
}

func (b *boundStore[T]) Snapshot() Resource[T] {
	return b.obs.Snapshot()
}

func (b *boundStore[T]) Subscribe(fn func(Resource[T])) (unsubscribe func()) {
	return b.obs.Subscribe(fn)
}

// Load fetches the record for the current session. Without an authenticated
// session the store is cleared and nothing is fetched.
//
// A failed fetch marks the store loaded, keeps the last known record and
// reports the error.
func (b *boundStore[T]) Load(ctx context.Context) error {
	session := b.session.Snapshot().Session
	if !session.IsAuthenticated {
		if _, ok := b.obs.start(func(Resource[T]) Resource[T] { return Resource[T]{} }); !ok {
			return common.ErrStoreClosed
		}
		return nil
	}
	owner := session.UserID

	gen, ok := b.obs.start(func(cur Resource[T]) Resource[T] {
		cur = cur.For(owner)
		cur.IsLoading = true
		cur.Err = nil
		return cur
	})
	if !ok {
		return common.ErrStoreClosed
	}

	v, err := b.fetch(ctx)
	if err != nil {
		b.logger.Warn(ctx, "fetch failed", "error", err)
		b.obs.commit(gen, func(cur Resource[T]) Resource[T] {
			return Resource[T]{Value: cur.Value, Loaded: true, Err: err, UserID: owner}
		})
		return err
	}

	b.obs.commit(gen, func(cur Resource[T]) Resource[T] {
		return Resource[T]{Value: b.combine(cur.Value, v), Loaded: true, UserID: owner}
	})
	return nil
}

// Refresh re-fetches the record.
func (b *boundStore[T]) Refresh(ctx context.Context) error {
	return b.Load(ctx)
}

// set applies a record the backend returned from a write started in
// generation gen.
func (b *boundStore[T]) set(gen uint64, v *T) {
	b.mu.Lock()
	owner := b.ident.owner()
	b.mu.Unlock()

	b.obs.commit(gen, func(cur Resource[T]) Resource[T] {
		cur = cur.For(owner)
		return Resource[T]{Value: b.combine(cur.Value, v), Loaded: true, UserID: owner}
	})
}

func (b *boundStore[T]) combine(prev, next *T) *T {
	if b.merge == nil {
		return next
	}
	return b.merge(prev, next)
}

// Close detaches the store from the session and drops late fetch results.
func (b *boundStore[T]) Close() {
	b.mu.Lock()
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	b.obs.close()
}
