package access

import (
	"net/url"
	"strings"
)

// RedirectParam is the query parameter that carries the page a visitor was
// sent away from.
const RedirectParam = "redirect"

// LoginRedirect returns the login URL that brings the visitor back to
// currentPath afterwards. currentPath is escaped exactly once.
func LoginRedirect(loginPath, currentPath string) string {
	sep := "?"
	if strings.Contains(loginPath, "?") {
		sep = "&"
	}
	return loginPath + sep + RedirectParam + "=" + url.QueryEscape(currentPath)
}

// RedirectTarget recovers the page encoded in a login URL by LoginRedirect.
// Absolute and protocol-relative targets are rejected.
func RedirectTarget(loginURL string) (string, bool) {
	u, err := url.Parse(loginURL)
	if err != nil {
		return "", false
	}
	target := u.Query().Get(RedirectParam)
	if !IsLocalPath(target) {
		return "", false
	}
	return target, true
}

// IsLocalPath reports whether p is a path on this site.
func IsLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}
