package database

import (
	"context"
	"database/sql/driver"
	"fmt"
	"hash/fnv"
	"time"
)

const unlockTimeout = 5 * time.Second

// LockID maps an arbitrary key onto the bigint space of PostgreSQL advisory locks.
func LockID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

// AdvisoryLock blocks until the session-level advisory lock for key is held on a
// dedicated connection and returns the function that releases it.
//
// The lock serializes work on the same key across every replica sharing the
// database. Release always runs with its own timeout so a cancelled ctx cannot
// leak the lock back into the pool.
func (db *DB) AdvisoryLock(ctx context.Context, key string) (func(), error) {
	id := LockID(key)

	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for lock %s: %w", key, err)
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", id); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to take advisory lock %s: %w", key, err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", id); err != nil {
			db.logger.Error().Err(err).Str("lock", key).Msg("failed to release advisory lock, discarding connection")
			// The session may still hold the lock. Closing the physical
			// connection ends the session and frees it server-side.
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
			return
		}
		if err := conn.Close(); err != nil {
			db.logger.Warn().Err(err).Str("lock", key).Msg("failed to return lock connection")
		}
	}, nil
}
