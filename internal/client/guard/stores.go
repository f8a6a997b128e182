package guard

import (
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/client/state"
)

// Stores adapts the three state stores to Sources.
type Stores struct {
	SessionStore      *state.SessionStore
	TenantStore       *state.TenantStore
	SubscriptionStore *state.SubscriptionStore
}

func (s Stores) Session() state.SessionSnapshot { return s.SessionStore.Snapshot() }

func (s Stores) Tenant() state.Resource[models.Tenant] { return s.TenantStore.Snapshot() }

func (s Stores) Subscription() state.Resource[models.Subscription] {
	return s.SubscriptionStore.Snapshot()
}

func (s Stores) Watch(fn func()) (stop func()) {
	stops := []func(){
		s.SessionStore.Subscribe(func(state.SessionSnapshot) { fn() }),
		s.TenantStore.Subscribe(func(state.Resource[models.Tenant]) { fn() }),
		s.SubscriptionStore.Subscribe(func(state.Resource[models.Subscription]) { fn() }),
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
