package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Connect builds a client and verifies it answers PING.
func Connect(ctx context.Context, addr, password string) (*goredis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ConnectOptional returns nil with a no-op cleanup when addr is unset or unreachable.
func ConnectOptional(ctx context.Context, addr, password string, logger *slog.Logger) (*goredis.Client, func()) {
	if strings.TrimSpace(addr) == "" {
		return nil, func() {}
	}
	client, err := Connect(ctx, addr, password)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to connect to redis, idempotency keys stay in the database or memory", slog.String("error", err.Error()))
		}
		return nil, func() {}
	}
	if logger != nil {
		logger.Info("redis connection established", slog.String("addr", addr))
	}
	return client, func() { _ = client.Close() }
}
