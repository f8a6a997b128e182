// Package cli provides the interactive fieldportal command-line client.
//
// It wires configuration, the local credential database, the API client and
// the state stores, then runs a REPL that stands in for the portal's pages.
// "open <path>" visits a page through a route guard: the page renders, shows
// a loading placeholder or redirects, exactly as the guard decides. Redirects
// are followed up to a bound.
//
// Typical flow: restore the stored session, load the organization and its
// subscription in parallel, start the expiry and connectivity watchers, then
// read commands until "exit".
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
