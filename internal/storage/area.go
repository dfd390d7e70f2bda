package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrContextInvalidated is returned by an area that can no longer be used,
// e.g. after Close. Stores absorb it: reads fall back to the cache and
// writes are skipped with a warning.
var ErrContextInvalidated = errors.New("storage context invalidated")

// errNoChange lets an updater skip the write; see NoChange.
var errNoChange = errors.New("no change")

// NoChange returns an error that, when returned by an Update function,
// leaves the stored value untouched and makes Update return nil.
func NoChange() error {
	return errNoChange
}

// Area is a namespace of raw key/value pairs shared between every store
// (and every process) opened on it.
type Area interface {
	// Get returns the raw value of key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	Set(ctx context.Context, key string, value []byte) error

	Delete(ctx context.Context, key string) error

	// Watch calls fn with the new value whenever key changes, including
	// changes made through this area. A nil value means the key was deleted.
	// fn must not block for long; cancel stops delivery.
	Watch(key string, fn func(value []byte)) (cancel func())

	Close() error
}

// WatcherSet is a concurrency-safe registry of Watch callbacks, shared by
// the area implementations.
type WatcherSet struct {
	mu    sync.Mutex
	next  int
	byKey map[string]map[int]func([]byte)
}

// Add registers fn for key and returns its cancel function.
func (w *WatcherSet) Add(key string, fn func([]byte)) (cancel func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.byKey == nil {
		w.byKey = make(map[string]map[int]func([]byte))
	}
	if w.byKey[key] == nil {
		w.byKey[key] = make(map[int]func([]byte))
	}
	w.next++
	id := w.next
	w.byKey[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.byKey[key], id)
			if len(w.byKey[key]) == 0 {
				delete(w.byKey, key)
			}
		})
	}
}

// Notify calls every callback registered for key. Callbacks run on the
// caller's goroutine, outside the registry lock.
func (w *WatcherSet) Notify(key string, value []byte) {
	w.mu.Lock()
	fns := make([]func([]byte), 0, len(w.byKey[key]))
	for _, fn := range w.byKey[key] {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// Len returns the number of registered callbacks.
func (w *WatcherSet) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, m := range w.byKey {
		n += len(m)
	}
	return n
}
