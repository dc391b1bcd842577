package repository

import (
	"context"
	"time"
)

const checkAndIncrementRateLimit = `-- name: CheckAndIncrementRateLimit :one
INSERT INTO rate_limits (chat_id, window_start, hits)
VALUES ($1, now(), 1)
ON CONFLICT (chat_id) DO UPDATE
SET hits = CASE WHEN rate_limits.window_start < now() - interval '1 minute' THEN 1 ELSE rate_limits.hits + 1 END,
    window_start = CASE WHEN rate_limits.window_start < now() - interval '1 minute' THEN now() ELSE rate_limits.window_start END
RETURNING hits
`

// CheckAndIncrementRateLimit returns the hit count of the current one-minute window.
func (q *Queries) CheckAndIncrementRateLimit(ctx context.Context, chatID int64) (int32, error) {
	row := q.db.QueryRow(ctx, checkAndIncrementRateLimit, chatID)
	var hits int32
	err := row.Scan(&hits)
	return hits, err
}

const cleanupRateLimits = `-- name: CleanupRateLimits :exec
DELETE FROM rate_limits WHERE window_start < $1
`

func (q *Queries) CleanupRateLimits(ctx context.Context, before time.Time) error {
	_, err := q.db.Exec(ctx, cleanupRateLimits, before)
	return err
}
