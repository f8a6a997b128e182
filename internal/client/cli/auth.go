package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fieldportal/internal/client/access"
	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/client/validation"
	"github.com/dmitrijs2005/fieldportal/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the sign-up form and creates an account. Input is
// validated before anything is sent.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	firstName, err := getSimpleText(a.reader, "First name", a.out)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Last name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	r := models.Registration{Email: email, Password: password, FirstName: firstName, LastName: lastName}
	if err := validation.Registration(r); err != nil {
		return err
	}
	if err := a.api.Register(ctx, r); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Account created. Sign in with 'login'.")
	return nil
}

// Login prompts for credentials and signs in. On success the organization is
// loaded and, when the current page is the login page, the user is taken to
// the page they were sent away from, or to the dashboard.
func (a *App) Login(ctx context.Context) error {
	if s := a.session.Snapshot().Session; s.IsAuthenticated {
		return fmt.Errorf("already signed in as %s, use 'logout' first", s.Email)
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, models.Credentials{Email: email, Password: password}); err != nil {
		return err
	}
	a.setMode(ModeOnline)

	s := a.session.Snapshot().Session
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", s.Email, s.Role)

	if err := a.loadOrganization(ctx); err != nil {
		fmt.Fprintln(a.out, "Warning:", api.Describe(err))
	}
	a.returnAfterLogin()
	return nil
}

func (a *App) returnAfterLogin() {
	current := a.browser.Current()
	if !samePath(current, a.config.Paths.Login) {
		return
	}
	if target, ok := access.RedirectTarget(current); ok {
		a.browser.Open(target)
		return
	}
	a.browser.Open(a.config.Paths.Dashboard)
}

// Logout signs out. The page being shown is re-checked right away.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

// samePath compares two URLs by path only.
func samePath(a, b string) bool {
	cut := func(s string) string {
		p, _, _ := strings.Cut(s, "?")
		return p
	}
	return a != "" && cut(a) == cut(b)
}
