package state

import (
	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

// SubscriptionStore holds the billing state of the user's organization.
type SubscriptionStore struct {
	boundStore[models.Subscription]
}

func NewSubscriptionStore(client api.Client, session *SessionStore, logger logging.Logger) *SubscriptionStore {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &SubscriptionStore{}
	s.fetch = client.CurrentSubscription
	s.init(session, logger.With("component", "subscription"))
	return s
}
