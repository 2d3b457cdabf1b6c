package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	errx "github.com/maleon-core-poc/server/internal/core/error"
	logx "github.com/maleon-core-poc/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Entries is the persisted shape: canonical utterance -> replies in insertion order.
type Entries map[string][]Reply

// Store persists the cache. Append only ever adds: replies already stored,
// by this process or another one, are kept. Load never fails on a corrupt
// payload; it logs and reports an empty cache so startup proceeds.
type Store interface {
	Load(ctx context.Context) (Entries, error)
	// Append adds the given replies after whatever each key already holds.
	Append(ctx context.Context, added Entries) error
}

const (
	cacheDirMode  = 0o755
	cacheFileMode = 0o644
	tempPattern   = ".cache-*.json"
)

// FileStore keeps the cache as one indented JSON object on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (Entries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entries{}, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return decodeEntries(data, s.path), nil
}

// Append merges added into the file's current content and rewrites it.
func (s *FileStore) Append(ctx context.Context, added Entries) error {
	if len(added) == 0 {
		return nil
	}
	entries, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for key, replies := range added {
		entries[key] = append(entries[key], replies...)
	}
	return s.write(ctx, entries)
}

// write replaces the file atomically: the JSON goes to a temp file in the same
// directory which is then renamed over the old one.
func (s *FileStore) write(ctx context.Context, entries Entries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, cacheDirMode); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Chmod(cacheFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	cleanup = false
	return nil
}

// RedisStore keeps one list of JSON replies per key plus a set of all keys,
// so replicas sharing a Redis only ever push and never overwrite each other.
//
//	<prefix>:keys         set of canonical keys
//	<prefix>:key:<key>    list of replies in insertion order
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "cache:responses"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) keysKey() string {
	return s.prefix + ":keys"
}

func (s *RedisStore) listKey(key string) string {
	return s.prefix + ":key:" + key
}

func (s *RedisStore) Load(ctx context.Context) (Entries, error) {
	keys, err := s.rdb.SMembers(ctx, s.keysKey()).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", s.keysKey()).Msg("failed to load response cache keys from redis")
		return nil, errx.WrapRedis(err)
	}
	if len(keys) == 0 {
		return Entries{}, nil
	}

	cmds := make(map[string]*redis.StringSliceCmd, len(keys))
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, key := range keys {
			cmds[key] = p.LRange(ctx, s.listKey(key), 0, -1)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("prefix", s.prefix).Msg("failed to load response cache from redis")
		return nil, errx.WrapRedis(err)
	}

	entries := make(Entries, len(keys))
	for key, cmd := range cmds {
		for _, raw := range cmd.Val() {
			var r Reply
			if err := json.Unmarshal([]byte(raw), &r); err != nil {
				logx.Warn().Err(err).Str("key", key).Msg("skipping malformed cached reply")
				continue
			}
			entries[key] = append(entries[key], r)
		}
	}
	return entries, nil
}

// Append pushes every reply in one MULTI/EXEC transaction.
func (s *RedisStore) Append(ctx context.Context, added Entries) error {
	if len(added) == 0 {
		return nil
	}
	values := make(map[string][]any, len(added))
	for key, replies := range added {
		for _, r := range replies {
			b, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode cached reply: %w", err)
			}
			values[key] = append(values[key], b)
		}
	}

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for key, vals := range values {
			if len(vals) == 0 {
				continue
			}
			p.SAdd(ctx, s.keysKey(), key)
			p.RPush(ctx, s.listKey(key), vals...)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("prefix", s.prefix).Msg("failed to append to response cache in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func decodeEntries(data []byte, source string) Entries {
	var entries Entries
	if err := json.Unmarshal(data, &entries); err != nil {
		logx.Warn().Err(err).Str("source", source).Msg("malformed response cache; starting empty")
		return Entries{}
	}
	if entries == nil {
		entries = Entries{}
	}
	return entries
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
)
