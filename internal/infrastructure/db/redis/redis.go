package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultClientName = "exhibitor-sessions"

	// readyKey is written once at startup to prove the session keyspace accepts writes.
	readyKey = "session:__ready"
)

// Config captures the settings for the session store connection.
type Config struct {
	Addr       string
	Password   string
	DB         int
	Timeout    time.Duration
	ClientName string
}

func (c Config) options() *redis.Options {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	name := c.ClientName
	if name == "" {
		name = defaultClientName
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		ClientName:   name,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

// Connect opens the session store client and checks that the server is
// reachable and writable. Pointing at a read-only replica fails here instead
// of at the first login.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := cfg.options()
	client := redis.NewClient(opts)

	checkCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(checkCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if err := checkWritable(checkCtx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

func checkWritable(ctx context.Context, client redis.Cmdable) error {
	if err := client.Set(ctx, readyKey, time.Now().Unix(), time.Minute).Err(); err != nil {
		return fmt.Errorf("redis session keyspace not writable: %w", err)
	}
	return client.Del(ctx, readyKey).Err()
}
