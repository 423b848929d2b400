// Package cache provides a Redis-backed JSON cache shared between the API
// and worker processes.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Payload markers. Values at least MinCompressSize bytes long are gzipped.
const (
	markerJSON byte = 'j'
	markerGzip byte = 'z'
)

// ErrCorruptPayload is returned when a stored value has an unknown format.
var ErrCorruptPayload = errors.New("corrupt cache payload")

// Config holds configuration for the Redis cache.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key (default: "yatri:").
	Prefix string

	// MinCompressSize is the encoded size from which values are gzipped
	// (default: 1024).
	MinCompressSize int

	Logger zerolog.Logger
}

// RedisCache stores JSON values in Redis.
type RedisCache struct {
	client      *redis.Client
	prefix      string
	minCompress int
	logger      zerolog.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewFromClient(client, cfg), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, cfg Config) *RedisCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "yatri:"
	}
	minCompress := cfg.MinCompressSize
	if minCompress <= 0 {
		minCompress = 1024
	}

	return &RedisCache{
		client:      client,
		prefix:      prefix,
		minCompress: minCompress,
		logger:      cfg.Logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// HealthCheck pings Redis.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get decodes the value under key into dst. A missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	start := time.Now()
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug().Str("key", key).Msg("cache miss")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := c.decode(data, dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}

	c.logger.Debug().
		Str("key", key).
		Int("size_bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("cache hit")
	return true, nil
}

// Set stores value under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := c.encode(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	c.logger.Debug().
		Str("key", key).
		Int("size_bytes", len(data)).
		Dur("ttl", ttl).
		Msg("cache set")
	return nil
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *RedisCache) encode(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	if len(raw) < c.minCompress {
		return append([]byte{markerJSON}, raw...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(markerGzip)
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *RedisCache) decode(data []byte, dst any) error {
	if len(data) == 0 {
		return ErrCorruptPayload
	}

	switch data[0] {
	case markerJSON:
		return json.Unmarshal(data[1:], dst)
	case markerGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data[1:]))
		if err != nil {
			return err
		}
		defer zr.Close()
		raw, err := io.ReadAll(zr)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dst)
	default:
		return ErrCorruptPayload
	}
}
