package state

import (
	"context"

	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/client/validation"
	"github.com/dmitrijs2005/fieldportal/internal/common"
	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

// TenantStore holds the organization of the signed-in user and its
// onboarding state.
type TenantStore struct {
	boundStore[models.Tenant]
	api api.Client
}

func NewTenantStore(client api.Client, session *SessionStore, logger logging.Logger) *TenantStore {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &TenantStore{api: client}
	s.fetch = client.CurrentTenant
	s.merge = keepOnboarded
	s.init(session, logger.With("component", "tenant"))
	return s
}

// CreateCompany creates the user's organization, then refreshes.
func (s *TenantStore) CreateCompany(ctx context.Context, name string) error {
	if err := validation.CompanyName(name); err != nil {
		return err
	}
	if !s.session.Snapshot().Session.IsAuthenticated {
		return common.ErrorUnauthorized
	}

	gen := s.obs.generation()
	t, err := s.api.CreateTenant(ctx, name)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "company created", "tenant_id", t.TenantID)
	s.set(gen, t)
	return s.Refresh(ctx)
}

// CompleteOnboarding marks onboarding finished, then refreshes.
func (s *TenantStore) CompleteOnboarding(ctx context.Context) error {
	if !s.session.Snapshot().Session.IsAuthenticated {
		return common.ErrorUnauthorized
	}

	gen := s.obs.generation()
	t, err := s.api.CompleteOnboarding(ctx)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "onboarding completed", "tenant_id", t.TenantID)
	s.set(gen, t)
	return s.Refresh(ctx)
}

// keepOnboarded stops a completed onboarding from reverting to incomplete
// for the same tenant within one session.
func keepOnboarded(prev, next *models.Tenant) *models.Tenant {
	if prev == nil || next == nil {
		return next
	}
	if prev.TenantID == next.TenantID && prev.OnboardingCompleted && !next.OnboardingCompleted {
		t := *next
		t.OnboardingCompleted = true
		return &t
	}
	return next
}
