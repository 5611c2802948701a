// Package redis wraps go-redis for the few ephemeral keys the service keeps.
package redis

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/redis/go-redis/v9"
)

// DB is a wrapper for go-redis
type DB struct {
	cli *redis.Client
}

// NewDB creates a new DB instance and pings the server
func NewDB(ctx context.Context, opt *redis.Options) (*DB, error) {
	cli := redis.NewClient(opt)
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, errors.Wrapf(err, "ping redis %q", opt.Addr)
	}

	return &DB{cli: cli}, nil
}

// Close closes the underlying client
func (db *DB) Close() error {
	return db.cli.Close()
}

// RevokeToken remembers tokenID as revoked for ttl.
// Non-positive ttl is a no-op because the token has already expired.
func (db *DB) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := db.cli.Set(ctx, KeyPrefixRevokedToken+tokenID, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "set revoked token")
	}

	return nil
}

// IsTokenRevoked reports whether tokenID has been revoked
func (db *DB) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := db.cli.Exists(ctx, KeyPrefixRevokedToken+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "check revoked token")
	}

	return n > 0, nil
}

// IncrLoginFailures increments the failure counter of account and
// (re)starts its expiry window, returning the new count.
func (db *DB) IncrLoginFailures(ctx context.Context, account string, window time.Duration) (int64, error) {
	key := KeyPrefixLoginFailures + account

	var incr *redis.IntCmd
	if _, err := db.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	}); err != nil {
		return 0, errors.Wrap(err, "incr login failures")
	}

	return incr.Val(), nil
}

// LoginFailures returns the current failure count of account
func (db *DB) LoginFailures(ctx context.Context, account string) (int64, error) {
	n, err := db.cli.Get(ctx, KeyPrefixLoginFailures+account).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, errors.Wrap(err, "get login failures")
	}

	return n, nil
}

// ResetLoginFailures clears the failure counter of account
func (db *DB) ResetLoginFailures(ctx context.Context, account string) error {
	if err := db.cli.Del(ctx, KeyPrefixLoginFailures+account).Err(); err != nil {
		return errors.Wrap(err, "reset login failures")
	}

	return nil
}
