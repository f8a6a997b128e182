package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/routes"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Open(ctx context.Context, path string) error
	Routes(ctx context.Context) error
	Company(ctx context.Context, name string) error
	Onboard(ctx context.Context) error
	Refresh(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The prompt shows statusFn's result. Handler errors are printed and the loop
// goes on; it ends on EOF, "exit"/"quit" or when ctx is done.
//
//	Always:
//	  - help             show available commands
//	  - open <path>      visit a page through its route guard
//	  - routes           list pages and their requirements
//	  - status           ping the backend, show session and page
//	  - exit | quit      leave the program
//
//	Signed out:
//	  - register         create an account
//	  - login            sign in
//
//	Signed in:
//	  - whoami           show user, company and subscription
//	  - company <name>   create your company
//	  - onboard          finish onboarding
//	  - refresh          reload company and subscription
//	  - logout           sign out
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("portal %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, open <path>, routes, company <name>, onboard, refresh, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, open <path>, routes, status, exit")
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "whoami":
			report(a.Whoami(ctx))

		case "open":
			if len(args) != 1 {
				printlnFn("Usage: open <path>")
				printlnFn("Pages:", strings.Join(routes.Paths(), " "))
				continue
			}
			report(a.Open(ctx, args[0]))

		case "routes":
			report(a.Routes(ctx))

		case "company":
			if len(args) == 0 {
				printlnFn("Usage: company <name>")
				continue
			}
			report(a.Company(ctx, strings.Join(args, " ")))

		case "onboard":
			report(a.Onboard(ctx))

		case "refresh":
			report(a.Refresh(ctx))

		case "status":
			report(a.Status(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", api.Describe(err))
	}
}
