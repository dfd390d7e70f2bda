// Package storage provides typed, cached, observable values over a raw
// key/value Area.
//
// # Overview
//
// A Store[T] owns one key of an Area. It keeps the last value it read or
// wrote in memory, serializes read-modify-write updates, and notifies
// subscribers after every change. With WithLiveUpdate the store also follows
// writes made by other stores or processes sharing the area.
//
// Values are encoded as JSON. A missing key, or a stored JSON null, reads
// as the fallback value given to New.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/khanhkom/engz/internal/logging"
	"github.com/segmentio/encoding/json"
)

type options struct {
	liveUpdate bool
	prime      bool
	logger     logging.Logger
}

// Option configures a Store.
type Option func(*options)

// WithLiveUpdate makes the store apply external writes to its cache.
func WithLiveUpdate() Option {
	return func(o *options) { o.liveUpdate = true }
}

// WithoutPrime skips the initial background load; the cache is filled on
// the first Update instead.
func WithoutPrime() Option {
	return func(o *options) { o.prime = false }
}

// WithLogger sets the logger for load failures and storage warnings.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Store is a typed value persisted under one key of an Area.
type Store[T any] struct {
	area        Area
	key         string
	fallbackRaw []byte
	log         logging.Logger

	// writeMu serializes Update; mu guards the cache and listeners.
	writeMu sync.Mutex

	mu        sync.RWMutex
	raw       []byte
	loaded    bool
	listeners map[int]func()
	nextID    int

	ready     chan struct{}
	stopWatch func()
}

// New creates a store for key with the given fallback. Unless WithoutPrime
// is passed the value is loaded in the background and subscribers fire once
// it is in the cache.
func New[T any](area Area, key string, fallback T, opts ...Option) *Store[T] {
	o := options{prime: true, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	fallbackRaw, err := json.Marshal(fallback)
	if err != nil {
		panic(fmt.Sprintf("storage: fallback for %q is not encodable: %v", key, err))
	}

	s := &Store[T]{
		area:        area,
		key:         key,
		fallbackRaw: fallbackRaw,
		log:         o.logger.With("key", key),
		listeners:   make(map[int]func()),
		ready:       make(chan struct{}),
	}

	if o.liveUpdate {
		s.stopWatch = area.Watch(key, s.applyExternal)
	}

	if o.prime {
		go s.prime()
	} else {
		close(s.ready)
	}

	return s
}

// Key returns the area key of the store.
func (s *Store[T]) Key() string {
	return s.key
}

// Ready is closed once the initial load has finished.
func (s *Store[T]) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store[T]) prime() {
	defer close(s.ready)
	ctx := context.Background()

	s.writeMu.Lock()
	raw, err := s.read(ctx)
	if err != nil {
		s.writeMu.Unlock()
		s.log.Error(ctx, "initial load failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return
	}
	s.raw, s.loaded = raw, true
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.emit()
}

// read fetches the raw value from the area, applying the fallback. An
// invalidated area yields the cache (or fallback) without error.
func (s *Store[T]) read(ctx context.Context) ([]byte, error) {
	data, ok, err := s.area.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrContextInvalidated) {
			s.log.Warn(ctx, "storage context invalidated, using cached value")
			return s.cachedRaw(), nil
		}
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if !ok || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return s.fallbackRaw, nil
	}
	return data, nil
}

func (s *Store[T]) cachedRaw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loaded {
		return s.raw
	}
	return s.fallbackRaw
}

func (s *Store[T]) decode(raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return v, nil
}

// Get reads the current value from the area. The returned value is a fresh
// copy the caller may modify.
func (s *Store[T]) Get(ctx context.Context) (T, error) {
	raw, err := s.read(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.decode(raw)
}

// Snapshot returns the cached value without touching the area. ok is false
// until the cache has been loaded.
func (s *Store[T]) Snapshot() (T, bool) {
	s.mu.RLock()
	raw, loaded := s.raw, s.loaded
	s.mu.RUnlock()

	if !loaded {
		var zero T
		return zero, false
	}
	v, err := s.decode(raw)
	if err != nil {
		return v, false
	}
	return v, true
}

// Set replaces the value.
func (s *Store[T]) Set(ctx context.Context, v T) error {
	return s.Update(ctx, func(T) (T, error) { return v, nil })
}

// Update applies fn to the cached value (loading it first if needed),
// persists the result and notifies subscribers. Updates on one store are
// serialized. If fn returns an error nothing is written; NoChange() makes
// Update return nil in that case.
func (s *Store[T]) Update(ctx context.Context, fn func(prev T) (T, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	prevRaw, loaded := s.raw, s.loaded
	s.mu.RUnlock()

	if !loaded {
		raw, err := s.read(ctx)
		if err != nil {
			return err
		}
		prevRaw = raw
	}

	prev, err := s.decode(prevRaw)
	if err != nil {
		return err
	}

	next, err := fn(prev)
	if err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}

	nextRaw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}

	s.mu.Lock()
	s.raw, s.loaded = nextRaw, true
	s.mu.Unlock()

	if err := s.area.Set(ctx, s.key, nextRaw); err != nil {
		s.mu.Lock()
		s.raw, s.loaded = prevRaw, true
		s.mu.Unlock()

		if errors.Is(err, ErrContextInvalidated) {
			s.log.Warn(ctx, "storage context invalidated, write skipped")
			return nil
		}
		return fmt.Errorf("write %s: %w", s.key, err)
	}

	s.emit()
	return nil
}

// Subscribe registers fn to run after every change of the value.
func (s *Store[T]) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store[T]) emit() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *Store[T]) applyExternal(value []byte) {
	if value == nil {
		value = s.fallbackRaw
	}

	s.mu.Lock()
	if s.loaded && bytes.Equal(s.raw, value) {
		s.mu.Unlock()
		return
	}
	if _, err := s.decode(value); err != nil {
		s.mu.Unlock()
		s.log.Warn(context.Background(), "ignoring undecodable external value", "error", err)
		return
	}
	s.raw, s.loaded = bytes.Clone(value), true
	s.mu.Unlock()

	s.emit()
}

// Close stops following external writes. It does not close the area.
func (s *Store[T]) Close() {
	if s.stopWatch != nil {
		s.stopWatch()
	}
}
