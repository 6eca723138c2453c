package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewClient создаёт Redis клиент без проверки соединения.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})
}

// Connect создаёт общий Redis клиент и проверяет соединение.
// Клиент потокобезопасен, его разделяют rate limiter'ы и хранилище сессий.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := NewClient(addr, password, db)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
