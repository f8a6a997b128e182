package credentials

import (
	"context"
	"sync"
)

// MemoryRepository keeps the token for the life of the process only.
type MemoryRepository struct {
	mu    sync.Mutex
	token string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token, nil
}

func (r *MemoryRepository) Save(_ context.Context, token string) error {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Clear(context.Context) error {
	r.mu.Lock()
	r.token = ""
	r.mu.Unlock()
	return nil
}
