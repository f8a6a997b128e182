// Package guard applies access decisions for one page.
//
// A Guard watches the session, tenant and subscription stores, re-decides on
// every change and acts only when the decision differs from the one it last
// applied. Repeated emissions with unchanged inputs do nothing, so a redirect
// is navigated to once.
package guard

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/fieldportal/internal/client/access"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/client/state"
	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

// Navigator moves the visitor to another path.
type Navigator interface {
	Navigate(path string)
}

// View renders the page the guard protects.
type View interface {
	ShowLoading()
	ShowContent()
	ShowError(message string)
}

// Sources are the stores a guard reads.
type Sources interface {
	Session() state.SessionSnapshot
	Tenant() state.Resource[models.Tenant]
	Subscription() state.Resource[models.Subscription]
	// Watch calls fn after any store changes and returns a function that
	// stops watching.
	Watch(fn func()) (stop func())
}

type Guard struct {
	sources Sources
	nav     Navigator
	view    View
	req     access.Requirement
	path    string
	paths   access.Paths
	logger  logging.Logger

	mu      sync.Mutex
	last    access.Decision
	applied bool
	// running is set while one goroutine decides and applies; pending asks
	// it to decide once more before it returns.
	running bool
	pending bool
	stop    func()
	closed  atomic.Bool
}

func New(sources Sources, nav Navigator, view View, req access.Requirement, path string, paths access.Paths, logger logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Guard{
		sources: sources,
		nav:     nav,
		view:    view,
		req:     req,
		path:    path,
		paths:   paths,
		logger:  logger.With("component", "guard", "path", path),
	}
}

// Start evaluates once and then on every store change.
func (g *Guard) Start() {
	stop := g.sources.Watch(g.Evaluate)

	g.mu.Lock()
	g.stop = stop
	g.mu.Unlock()

	g.Evaluate()
}

// Evaluate decides with the current snapshots and applies the decision if it
// is new.
//
// Decisions are applied one at a time and in the order they were made. A
// call arriving while another goroutine is applying, or from inside the
// view or navigator, only marks the guard dirty; the running call decides
// again with fresh snapshots before it returns.
func (g *Guard) Evaluate() {
	if g.closed.Load() {
		return
	}

	g.mu.Lock()
	g.pending = true
	if g.running {
		g.mu.Unlock()
		return
	}
	g.running = true

	for g.pending && !g.closed.Load() {
		g.pending = false
		d := access.Decide(Inputs(g.sources), g.req, g.path, g.paths)
		if g.applied && d == g.last {
			continue
		}
		g.last, g.applied = d, true
		g.mu.Unlock()

		g.logger.Debug(context.Background(), "decision", "kind", d.Kind.String(), "target", d.Path, "reason", d.Reason)
		g.apply(d)

		g.mu.Lock()
	}
	g.running = false
	g.mu.Unlock()
}

// Decision returns the last applied decision.
func (g *Guard) Decision() (access.Decision, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.applied
}

// Close stops watching. Evaluations after Close do nothing.
func (g *Guard) Close() {
	g.closed.Store(true)

	g.mu.Lock()
	stop := g.stop
	g.stop = nil
	g.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (g *Guard) apply(d access.Decision) {
	switch d.Kind {
	case access.Wait:
		g.view.ShowLoading()
	case access.Allow:
		g.view.ShowContent()
	case access.Redirect:
		if d.Message != "" {
			g.view.ShowError(d.Message)
		}
		g.nav.Navigate(d.Path)
	}
}

// Inputs collects the decision inputs from src. Tenant and subscription
// snapshots that belong to another user count as not loaded.
func Inputs(src Sources) access.Inputs {
	s := src.Session()
	t := src.Tenant().For(s.Session.UserID)
	sub := src.Subscription().For(s.Session.UserID)
	return access.Inputs{
		Session:             s.Session,
		SessionLoading:      s.IsLoading,
		SessionResolved:     s.Resolved,
		Tenant:              t.Value,
		TenantLoading:       t.IsLoading,
		TenantLoaded:        t.Loaded,
		Subscription:        sub.Value,
		SubscriptionLoading: sub.IsLoading,
		SubscriptionLoaded:  sub.Loaded,
	}
}
