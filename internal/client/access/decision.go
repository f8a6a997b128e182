package access

import "fmt"

// Kind is the outcome of an access decision.
type Kind int

const (
	// Wait means a needed snapshot is not known yet. It never redirects.
	Wait Kind = iota
	Allow
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Reasons name the check that produced a decision.
const (
	ReasonAllow                = "allow"
	ReasonLoading              = "loading"
	ReasonUnauthenticated      = "unauthenticated"
	ReasonNoTenant             = "no_tenant"
	ReasonOnboardingIncomplete = "onboarding_incomplete"
	ReasonForbidden            = "forbidden"
	ReasonNoSubscription       = "no_subscription"
	ReasonSubscriptionInactive = "subscription_inactive"
	ReasonTrialNotAllowed      = "trial_not_allowed"
)

// PermissionDeniedMessage is shown when a role check fails on a page that
// asks for errors to be surfaced.
const PermissionDeniedMessage = "You do not have permission to access this page."

// Decision is comparable so callers can tell a new decision from a repeat.
type Decision struct {
	Kind    Kind
	Path    string
	Reason  string
	Message string
}

func (d Decision) String() string {
	if d.Kind == Redirect {
		return fmt.Sprintf("redirect(%s) %s", d.Path, d.Reason)
	}
	return d.Kind.String()
}

func allow() Decision { return Decision{Kind: Allow, Reason: ReasonAllow} }

func wait() Decision { return Decision{Kind: Wait, Reason: ReasonLoading} }

func redirect(path, reason string) Decision {
	return Decision{Kind: Redirect, Path: path, Reason: reason}
}
