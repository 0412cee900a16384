/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package runlock enforces the single-logical-writer rule for batch
// runs with a Redis lease. Two batch processes writing the same spots
// would still converge (writes are upserts), but the lease keeps
// operators from burning hours on duplicate work and keeps the
// per-record counters meaningful.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLockKey = "langblock:runlock:assign"

	// Lease must outlive one commit group comfortably.
	defaultLeaseDuration   = 60 * time.Second
	defaultRenewalInterval = 20 * time.Second
)

// ErrHeldElsewhere indicates another batch run holds the lock.
var ErrHeldElsewhere = errors.New("batch run lock held by another process")

// Lock is a Redis lease held for the duration of one batch run.
type Lock struct {
	client  *redis.Client
	logger  zerolog.Logger
	key     string
	holder  string
	lease   time.Duration
	renewal time.Duration
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config configures the lock.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Key           string
	LeaseDuration time.Duration
}

// New creates a lock manager. The lock is not acquired until Acquire.
func New(cfg Config, logger zerolog.Logger) *Lock {
	if cfg.Key == "" {
		cfg.Key = defaultLockKey
	}
	if cfg.LeaseDuration == 0 {
		cfg.LeaseDuration = defaultLeaseDuration
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &Lock{
		client:  client,
		logger:  logger.With().Str("component", "runlock").Logger(),
		key:     cfg.Key,
		holder:  uuid.NewString(),
		lease:   cfg.LeaseDuration,
		renewal: cfg.LeaseDuration / 3,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Acquire takes the lease or returns ErrHeldElsewhere. On success a
// background goroutine renews the lease until Release.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.holder, l.lease).Result()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrHeldElsewhere
	}

	l.logger.Info().Str("holder", l.holder).Msg("batch run lock acquired")
	go l.renewLoop()
	return nil
}

func (l *Lock) renewLoop() {
	defer close(l.doneCh)

	ticker := time.NewTicker(l.renewal)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			// Renew only while we still hold it.
			renewed, err := renewScript.Run(ctx, l.client, []string{l.key}, l.holder, int(l.lease/time.Millisecond)).Int()
			cancel()
			if err != nil {
				l.logger.Warn().Err(err).Msg("run lock renewal failed")
				continue
			}
			if renewed == 0 {
				l.logger.Error().Msg("run lock lost to another holder")
				return
			}
		}
	}
}

// renewScript extends the lease only when the value still matches the
// holder, so a takeover after expiry is never clobbered.
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// releaseScript deletes the key only when held by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`)

// Release stops renewal and frees the lease.
func (l *Lock) Release(ctx context.Context) {
	close(l.stopCh)
	<-l.doneCh

	if _, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.holder).Result(); err != nil {
		l.logger.Warn().Err(err).Msg("run lock release failed; lease will expire on its own")
	}
	if err := l.client.Close(); err != nil {
		l.logger.Warn().Err(err).Msg("redis close failed")
	}
}
