package access

import (
	"slices"
)

// Decide runs the checks below in order and returns at the first that fails:
//
//  1. a snapshot the page depends on is still loading: Wait
//  2. the page needs a session and there is none: Redirect to login
//  3. the page needs a finished onboarding: Redirect to the dashboard
//  4. the session's role is not allowed: Redirect to the fallback
//  5. the page needs an active subscription: Redirect to billing plans
//
// Otherwise the page is allowed.
func Decide(in Inputs, req Requirement, currentPath string, paths Paths) Decision {
	authed := in.Session.IsAuthenticated
	if !authed {
		// Records fetched for an earlier session must not grant anything.
		in.Tenant, in.Subscription = nil, nil
	}

	if in.SessionLoading || !in.SessionResolved {
		return wait()
	}
	if authed && req.RequireOnboarding && (in.TenantLoading || !in.TenantLoaded) {
		return wait()
	}
	if authed && req.RequireActiveSubscription && (in.SubscriptionLoading || !in.SubscriptionLoaded) {
		return wait()
	}

	if req.RequireAuth && !authed {
		return redirect(LoginRedirect(paths.Login, currentPath), ReasonUnauthenticated)
	}

	if req.RequireOnboarding && authed {
		switch {
		case in.Tenant == nil:
			return redirect(paths.Dashboard, ReasonNoTenant)
		case !in.Tenant.OnboardingCompleted:
			return redirect(paths.Dashboard, ReasonOnboardingIncomplete)
		}
	}

	if len(req.RequiredRoles) > 0 && !slices.Contains(req.RequiredRoles, in.Session.Role) {
		target := req.FallbackPath
		if target == "" {
			target = paths.Dashboard
		}
		d := redirect(target, ReasonForbidden)
		if req.ShowError {
			d.Message = PermissionDeniedMessage
		}
		return d
	}

	if req.RequireActiveSubscription {
		sub := in.Subscription
		switch {
		case sub == nil:
			return redirect(paths.BillingPlans, ReasonNoSubscription)
		case !sub.IsActive:
			return redirect(paths.BillingPlans, ReasonSubscriptionInactive)
		case sub.IsTrial && req.DisallowTrial:
			return redirect(paths.BillingPlans, ReasonTrialNotAllowed)
		}
	}

	return allow()
}
