// Package access decides what a visitor may see.
//
// Decide is a pure function of the current session, tenant and subscription
// snapshots, a page's Requirement and the page's path. It never performs I/O
// and keeps no state; two calls with equal arguments return equal decisions.
package access
