package models

// Tenant is the organization a user belongs to. A nil *Tenant means the user
// is signed in but has not created or joined an organization yet.
type Tenant struct {
	TenantID            string `json:"id"`
	Name                string `json:"name"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
}

// Subscription is the organization's billing state. A nil *Subscription
// means there is no subscription record.
type Subscription struct {
	IsActive          bool   `json:"isActive"`
	IsTrial           bool   `json:"isTrial"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
	Plan              string `json:"plan,omitempty"`
	Status            string `json:"status,omitempty"`
}
