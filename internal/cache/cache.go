// Package cache is the approximate, append-only response cache that sits in
// front of the generative model. Keys are canonical utterances; a query is
// served from the closest key when the token-set similarity clears the
// threshold, trading an occasional wrong hit for fewer model calls.
package cache

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maleon-core-poc/server/internal/textmatch"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// Reply is one stored answer; its JSON shape matches the /chat response.
type Reply struct {
	Text     string    `json:"reply"`
	AudioURL string    `json:"audio_url"`
	Tool     *ToolMeta `json:"tool,omitempty"`
}

// ToolMeta records which lookup produced a reply.
type ToolMeta struct {
	Name         string `json:"name"`
	Municipality string `json:"municipality,omitempty"`
}

type Config struct {
	MatchThreshold   int           `envconfig:"CACHE_MATCH_THRESHOLD" default:"75"`
	TrapSize         int           `envconfig:"CACHE_TRAP_SIZE" default:"3"`
	FreshProbability float64       `envconfig:"CACHE_FRESH_PROBABILITY" default:"0.5"`
	FlushInterval    time.Duration `envconfig:"CACHE_FLUSH_INTERVAL" default:"0s"`
}

func (c Config) withDefaults() Config {
	if c.MatchThreshold <= 0 {
		c.MatchThreshold = 75
	}
	if c.TrapSize <= 0 {
		c.TrapSize = 3
	}
	if c.FreshProbability < 0 || c.FreshProbability > 1 {
		c.FreshProbability = 0.5
	}
	return c
}

// Lookup is the outcome of matching an utterance against the cache.
type Lookup struct {
	// Key is the matched canonical key; empty when nothing cleared the threshold.
	Key   string
	Score int
	// Cached is set when a stored reply should be returned instead of generating.
	Cached *Reply
}

func (l Lookup) Matched() bool {
	return l.Key != ""
}

type Stats struct {
	Keys    int `json:"keys"`
	Replies int `json:"replies"`
}

type Option func(*Cache)

// WithRand replaces the random source used by the reuse policy.
func WithRand(r *rand.Rand) Option {
	return func(c *Cache) { c.rng = r }
}

type Cache struct {
	mu      sync.Mutex
	entries Entries
	store   Store
	cfg     Config
	rng     *rand.Rand
	// pending holds replies appended since the last successful flush.
	pending Entries
}

// New loads the persisted entries from store.
func New(ctx context.Context, store Store, cfg Config, opts ...Option) (*Cache, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		entries: entries,
		pending: Entries{},
		store:   store,
		cfg:     cfg.withDefaults(),
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d616c656f6e)),
	}
	for _, opt := range opts {
		opt(c)
	}
	logx.Info().Int("keys", len(entries)).Msg("response cache loaded")
	return c, nil
}

// Canonical is the key form of an utterance: lowercased and trimmed.
func Canonical(utterance string) string {
	return strings.ToLower(strings.TrimSpace(utterance))
}

// Lookup finds the closest key and applies the reuse policy: a key holding
// TrapSize or more replies always answers from storage; a key with fewer
// replies answers from storage unless a coin flip asks for a fresh variant.
func (c *Cache) Lookup(utterance string) Lookup {
	query := Canonical(utterance)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 || query == "" {
		return Lookup{}
	}

	bestKey, bestScore := "", -1
	for key := range c.entries {
		s := textmatch.TokenSetRatio(query, key)
		// ties resolve to the lexically smaller key so lookups are stable
		if s > bestScore || (s == bestScore && key < bestKey) {
			bestKey, bestScore = key, s
		}
	}
	if bestScore <= c.cfg.MatchThreshold {
		return Lookup{Score: bestScore}
	}

	out := Lookup{Key: bestKey, Score: bestScore}
	variants := c.entries[bestKey]
	switch {
	case len(variants) == 0:
	case len(variants) >= c.cfg.TrapSize:
		out.Cached = c.pick(variants)
	case c.rng.Float64() >= c.cfg.FreshProbability:
		out.Cached = c.pick(variants)
	}
	return out
}

func (c *Cache) pick(variants []Reply) *Reply {
	r := variants[c.rng.IntN(len(variants))]
	return &r
}

// Append adds reply under key, creating the key when absent, and persists.
// With a flush interval configured the write is deferred to the next flush.
func (c *Cache) Append(ctx context.Context, key string, reply Reply) error {
	key = Canonical(key)
	if key == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = append(c.entries[key], reply)
	c.pending[key] = append(c.pending[key], reply)
	if c.cfg.FlushInterval > 0 {
		return nil
	}
	return c.flushLocked(ctx)
}

// Flush writes pending changes, if any.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked(ctx)
}

func (c *Cache) flushLocked(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}
	if err := c.store.Append(ctx, c.pending); err != nil {
		return err
	}
	c.pending = Entries{}
	return nil
}

// Run flushes on every tick of the configured interval until ctx is done.
// It returns immediately when writes are synchronous.
func (c *Cache) Run(ctx context.Context) {
	if c.cfg.FlushInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil {
				logx.Error().Err(err).Msg("deferred cache flush failed")
			}
		}
	}
}

// Close flushes pending writes with a fresh context.
func (c *Cache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.Flush(ctx)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Stats{Keys: len(c.entries)}
	for _, v := range c.entries {
		st.Replies += len(v)
	}
	return st
}

// Keys returns the canonical keys sorted alphabetically.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Replies returns a copy of the replies stored under key.
func (c *Cache) Replies(key string) []Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	src := c.entries[Canonical(key)]
	out := make([]Reply, len(src))
	copy(out, src)
	return out
}
