// Package routes declares the portal's pages and what each asks of its
// visitors.
package routes

import (
	"sort"
	"strings"

	"github.com/dmitrijs2005/fieldportal/internal/client/access"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
)

// Route is one page of the portal.
type Route struct {
	Path        string
	Title       string
	Requirement access.Requirement
}

var (
	authenticated = access.Requirement{RequireAuth: true}
	onboarded     = access.Requirement{RequireAuth: true, RequireOnboarding: true}
	managers      = []models.Role{models.RoleOwner, models.RoleAdmin}
)

// Table is the static route table.
var Table = []Route{
	{Path: "/", Title: "Home"},
	{Path: "/login", Title: "Sign in"},
	{Path: "/register", Title: "Create account"},
	{Path: "/pricing", Title: "Pricing"},

	{Path: "/dashboard", Title: "Dashboard", Requirement: authenticated},
	{Path: "/profile", Title: "Profile", Requirement: authenticated},
	{Path: "/onboarding/company", Title: "Create your company", Requirement: authenticated},
	{Path: "/billing/plans", Title: "Plans", Requirement: authenticated},

	{Path: "/jobs", Title: "Jobs", Requirement: onboarded},
	{Path: "/customers", Title: "Customers", Requirement: onboarded},
	{Path: "/schedule", Title: "Schedule", Requirement: onboarded},

	{Path: "/team", Title: "Team", Requirement: access.Requirement{
		RequireAuth:       true,
		RequireOnboarding: true,
		RequiredRoles:     managers,
		ShowError:         true,
	}},
	{Path: "/settings/company", Title: "Company settings", Requirement: access.Requirement{
		RequireAuth:       true,
		RequireOnboarding: true,
		RequiredRoles:     managers,
		ShowError:         true,
	}},
	{Path: "/billing", Title: "Billing", Requirement: access.Requirement{
		RequireAuth:       true,
		RequireOnboarding: true,
		RequiredRoles:     []models.Role{models.RoleOwner},
		FallbackPath:      "/profile",
		ShowError:         true,
	}},

	{Path: "/invoices", Title: "Invoices", Requirement: access.Requirement{
		RequireAuth:               true,
		RequireOnboarding:         true,
		RequireActiveSubscription: true,
	}},
	{Path: "/reports", Title: "Reports", Requirement: access.Requirement{
		RequireAuth:               true,
		RequireOnboarding:         true,
		RequiredRoles:             []models.Role{models.RoleOwner, models.RoleAdmin, models.RoleManager},
		ShowError:                 true,
		RequireActiveSubscription: true,
		DisallowTrial:             true,
	}},
}

// Lookup finds the route serving path. The query and fragment are ignored and
// the longest declared prefix that ends on a segment boundary wins, so
// "/jobs/42" is served by "/jobs". Unknown paths are public.
func Lookup(path string) Route {
	p := clean(path)

	best, bestLen := Route{Path: p}, -1
	for _, r := range Table {
		if !matches(r.Path, p) {
			continue
		}
		if len(r.Path) > bestLen {
			best, bestLen = r, len(r.Path)
		}
	}
	return best
}

// Paths returns the declared paths in lexical order.
func Paths() []string {
	out := make([]string, 0, len(Table))
	for _, r := range Table {
		out = append(out, r.Path)
	}
	sort.Strings(out)
	return out
}

func matches(prefix, p string) bool {
	if prefix == "/" {
		return p == "/"
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
