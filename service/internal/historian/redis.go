package historian

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix for action lists.
const DefaultRedisPrefix = "thief:actions:"

// RedisOptions configures a RedisPublisher.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // defaults to DefaultRedisPrefix
	Encoding Encoding
}

// RedisPublisher appends each record to a per-game Redis list.
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
	enc    Encoding
}

// NewRedisPublisher connects to Redis and verifies the connection with PING.
func NewRedisPublisher(ctx context.Context, opts RedisOptions) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	p := NewRedisPublisherFromClient(rdb, opts.Prefix)
	p.enc = opts.Encoding
	return p, nil
}

// NewRedisPublisherFromClient wraps an existing client.
func NewRedisPublisherFromClient(rdb *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisPublisher{rdb: rdb, prefix: prefix, enc: EncodingJSON}
}

// Key returns the list key holding a game's records.
func (p *RedisPublisher) Key(rec ActionRecord) string {
	return p.prefix + rec.GameID.String()
}

func (p *RedisPublisher) Publish(ctx context.Context, rec ActionRecord) error {
	data, err := rec.EncodeAs(p.enc)
	if err != nil {
		return fmt.Errorf("encode action %d: %w", rec.ActionIndex, err)
	}
	if err := p.rdb.RPush(ctx, p.Key(rec), data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", p.Key(rec), err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.rdb.Close() }
