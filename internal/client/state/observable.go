package state

import (
	"sync"
)

// observable is a value of type T guarded by a mutex, with subscribers that
// are told about every change.
//
// gen counts identity changes. Operations that start a fetch take a
// generation with start and apply the result with commit; commit drops the
// result if anything called start in between or the observable was closed.
type observable[T any] struct {
	mu     sync.Mutex
	value  T
	gen    uint64
	closed bool
	subs   map[uint64]func(T)
	nextID uint64
}

func (o *observable[T]) Snapshot() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Subscribe registers fn for future changes and returns a function that
// removes it. fn is not called with the current value.
func (o *observable[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.mu.Lock()
	if o.subs == nil {
		o.subs = make(map[uint64]func(T))
	}
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// start bumps the generation, applies fn and publishes. It returns the new
// generation, or 0 and false when the observable is closed.
func (o *observable[T]) start(fn func(T) T) (uint64, bool) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return 0, false
	}
	o.gen++
	o.value = fn(o.value)
	gen, v, subs := o.gen, o.value, o.subscribers()
	o.mu.Unlock()

	publish(v, subs)
	return gen, true
}

func (o *observable[T]) generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen
}

// commit applies fn only while gen is still current.
func (o *observable[T]) commit(gen uint64, fn func(T) T) bool {
	o.mu.Lock()
	if o.closed || o.gen != gen {
		o.mu.Unlock()
		return false
	}
	o.value = fn(o.value)
	v, subs := o.value, o.subscribers()
	o.mu.Unlock()

	publish(v, subs)
	return true
}

// update applies fn without touching the generation.
func (o *observable[T]) update(fn func(T) T) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	o.value = fn(o.value)
	v, subs := o.value, o.subscribers()
	o.mu.Unlock()

	publish(v, subs)
	return true
}

func (o *observable[T]) close() {
	o.mu.Lock()
	o.closed = true
	o.subs = nil
	o.mu.Unlock()
}

// subscribers must be called with mu held.
func (o *observable[T]) subscribers() []func(T) {
	out := make([]func(T), 0, len(o.subs))
	for _, fn := range o.subs {
		out = append(out, fn)
	}
	return out
}

func publish[T any](v T, subs []func(T)) {
	for _, fn := range subs {
		fn(v)
	}
}
