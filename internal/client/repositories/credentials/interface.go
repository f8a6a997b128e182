// Package credentials stores the session token between runs.
//
// There is a single slot. Load on an empty slot returns ("", nil); Clear on
// an empty slot is not an error.
package credentials

import "context"

type Repository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
