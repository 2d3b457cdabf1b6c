package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config is read with the REDIS_ prefix. An empty URL means "run without
// Redis": conversation history stays in memory and the cache uses its file.
type Config struct {
	URL          string `split_words:"true"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"3"`
	DialTimeout  int    `split_words:"true" default:"5"`
}

func (r *Config) Enabled() bool {
	return r.URL != ""
}

func (r *Config) New(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, err
	}

	opts.ReadTimeout = time.Duration(r.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(r.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(r.DialTimeout) * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
