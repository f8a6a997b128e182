package access

import (
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
)

// Requirement is what a page asks of its visitor. The zero value is a
// public page.
type Requirement struct {
	RequireAuth       bool
	RequireOnboarding bool

	// RequiredRoles, when non-empty, lists the roles allowed in. Visitors
	// with another role go to FallbackPath, or the dashboard when it is
	// empty. ShowError attaches PermissionDeniedMessage to that redirect.
	RequiredRoles []models.Role
	FallbackPath  string
	ShowError     bool

	RequireActiveSubscription bool
	// DisallowTrial rejects trial subscriptions on pages that require an
	// active one.
	DisallowTrial bool
}

// Paths are the navigation targets decisions point at.
type Paths struct {
	Login        string
	Dashboard    string
	BillingPlans string
}

// Inputs are the store snapshots a decision is made from.
type Inputs struct {
	Session         models.Session
	SessionLoading  bool
	SessionResolved bool

	Tenant        *models.Tenant
	TenantLoading bool
	TenantLoaded  bool

	Subscription        *models.Subscription
	SubscriptionLoading bool
	SubscriptionLoaded  bool
}
