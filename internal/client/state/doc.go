// Package state holds the client's observable state stores.
//
// Each store owns one slice of state (session, tenant, subscription) and
// publishes immutable snapshot values to subscribers. Callbacks run on the
// goroutine that changed the state and never under a store lock, so a
// subscriber may read any store's Snapshot from inside its callback.
//
// The tenant and subscription stores follow the session store: any change of
// identity clears them and discards fetches that were still in flight for the
// previous identity.
package state
