package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fieldportal/internal/client/access"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/client/routes"
)

// Open visits path through its route guard.
func (a *App) Open(_ context.Context, path string) error {
	if !access.IsLocalPath(path) {
		return fmt.Errorf("open %q: path must start with a single /", path)
	}
	a.browser.Open(path)
	return nil
}

// Routes lists the portal's pages and what each requires.
func (a *App) Routes(context.Context) error {
	for _, r := range routes.Table {
		fmt.Fprintf(a.out, "%-20s %-22s %s\n", r.Path, r.Title, describeRequirement(r.Requirement))
	}
	return nil
}

func describeRequirement(req access.Requirement) string {
	var parts []string
	if req.RequireAuth {
		parts = append(parts, "sign-in")
	}
	if req.RequireOnboarding {
		parts = append(parts, "onboarded")
	}
	if len(req.RequiredRoles) > 0 {
		roles := make([]string, len(req.RequiredRoles))
		for i, r := range req.RequiredRoles {
			roles[i] = string(r)
		}
		parts = append(parts, "roles="+strings.Join(roles, "|"))
	}
	if req.RequireActiveSubscription {
		if req.DisallowTrial {
			parts = append(parts, "paid-subscription")
		} else {
			parts = append(parts, "subscription")
		}
	}
	if len(parts) == 0 {
		return "public"
	}
	return strings.Join(parts, ", ")
}

// Whoami prints the session, organization and subscription.
func (a *App) Whoami(context.Context) error {
	snap := a.session.Snapshot()
	if !snap.Session.IsAuthenticated {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	s := snap.Session
	fmt.Fprintf(a.out, "User:         %s (%s) id=%s\n", s.Email, s.Role, s.UserID)
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Expires:      %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	t, sub := a.tenants.Snapshot().For(s.UserID), a.subs.Snapshot().For(s.UserID)
	fmt.Fprintf(a.out, "Company:      %s\n", describeTenant(t.Value, t.Loaded))
	fmt.Fprintf(a.out, "Subscription: %s\n", describeSubscription(sub.Value, sub.Loaded))
	return nil
}

func describeTenant(t *models.Tenant, loaded bool) string {
	switch {
	case !loaded:
		return "unknown"
	case t == nil:
		return "none yet (use 'company <name>')"
	case !t.OnboardingCompleted:
		return fmt.Sprintf("%s, onboarding in progress (use 'onboard')", t.Name)
	}
	return t.Name
}

func describeSubscription(s *models.Subscription, loaded bool) string {
	switch {
	case !loaded:
		return "unknown"
	case s == nil:
		return "none"
	}
	var parts []string
	if s.Plan != "" {
		parts = append(parts, s.Plan)
	}
	if s.IsActive {
		parts = append(parts, "active")
	} else {
		parts = append(parts, "inactive")
	}
	if s.IsTrial {
		parts = append(parts, "trial")
	}
	if s.CancelAtPeriodEnd {
		parts = append(parts, "cancels at period end")
	}
	return strings.Join(parts, ", ")
}

// Company creates the user's organization.
func (a *App) Company(ctx context.Context, name string) error {
	if err := a.tenants.CreateCompany(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Company %q created.\n", name)
	return nil
}

// Onboard marks onboarding finished.
func (a *App) Onboard(ctx context.Context) error {
	if err := a.tenants.CompleteOnboarding(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Onboarding complete.")
	return nil
}

// Refresh reloads the organization and its subscription.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.loadOrganization(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Refreshed.")
	return nil
}

// Status pings the backend and prints what the client currently knows.
func (a *App) Status(ctx context.Context) error {
	a.checkOnline(ctx)

	snap := a.session.Snapshot()
	session := "signed out"
	switch {
	case snap.IsLoading:
		session = "loading"
	case !snap.Resolved:
		session = "unknown"
	case snap.Session.IsAuthenticated:
		session = "signed in as " + snap.Session.Email
	}

	fmt.Fprintf(a.out, "Backend:  %s\n", a.currentMode())
	fmt.Fprintf(a.out, "Session:  %s\n", session)
	if current := a.browser.Current(); current != "" {
		fmt.Fprintf(a.out, "Page:     %s\n", current)
	}
	return nil
}
