package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// LoginChecker reads trainee sessions from redis. A session older than
// the ttl counts as logged out even before ScanAndClean removes it.
type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (c *LoginChecker) IsLogged(ctx context.Context, token string) (bool, error) {
	cmd := c.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		return false, err
	}

	createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse session created at: %w", err)
	}

	createdAt := time.Unix(createdAtUnix, 0)
	return time.Since(createdAt) <= c.ttl, nil
}
