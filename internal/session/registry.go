// Package session keeps one value (an agent) per session id with idle eviction.
package session

import (
	"context"
	"sync"
	"time"

	logx "github.com/maleon-core-poc/server/pkg/logger"
)

type Config struct {
	// TTL evicts sessions idle for longer; 0 keeps them forever.
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// Registry maps session ids to values created on first use.
type Registry[T any] struct {
	cfg     Config
	create  func(id string) T
	onEvict func(id string, value T)
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[T]
}

type Option[T any] func(*Registry[T])

// WithOnEvict registers fn to run for every session removed by Sweep. It is
// called outside the registry lock.
func WithOnEvict[T any](fn func(id string, value T)) Option[T] {
	return func(r *Registry[T]) { r.onEvict = fn }
}

func NewRegistry[T any](cfg Config, create func(id string) T, opts ...Option[T]) *Registry[T] {
	r := &Registry[T]{
		cfg:     cfg,
		create:  create,
		now:     time.Now,
		entries: map[string]*entry[T]{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the value for id, creating it exactly once under the registry
// lock, and marks the session as active.
func (r *Registry[T]) Get(id string) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &entry[T]{value: r.create(id)}
		r.entries[id] = e
		logx.Debug().Str("session_id", id).Int("sessions", len(r.entries)).Msg("session created")
	}
	e.lastSeen = r.now()
	return e.value
}

// Len is the number of live sessions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many.
func (r *Registry[T]) Sweep() int {
	if r.cfg.TTL <= 0 {
		return 0
	}
	r.mu.Lock()
	cutoff := r.now().Add(-r.cfg.TTL)
	evicted := map[string]T{}
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			evicted[id] = e.value
		}
	}
	remaining := len(r.entries)
	r.mu.Unlock()

	if len(evicted) == 0 {
		return 0
	}
	logx.Info().Int("evicted", len(evicted)).Int("sessions", remaining).Msg("idle sessions evicted")
	if r.onEvict != nil {
		for id, v := range evicted {
			r.onEvict(id, v)
		}
	}
	return len(evicted)
}

// Run sweeps periodically until ctx is done.
func (r *Registry[T]) Run(ctx context.Context) {
	if r.cfg.TTL <= 0 {
		return
	}
	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
