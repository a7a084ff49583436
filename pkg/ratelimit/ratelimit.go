package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"anoa.com/studyhub/pkg/apperror"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ActionAIGenerate is shared by every AI generator so one cooldown covers them all.
const ActionAIGenerate = "ai_generate"

func key(userID uint, action string) string {
	return fmt.Sprintf("rate_limit:user:%d:%s", userID, action)
}

// CheckAndSet reports whether the action is allowed and, if so, locks it for limit.
// A nil client disables limiting. When redis cannot be reached the action is
// allowed and the failure logged.
func CheckAndSet(ctx context.Context, rdb *redis.Client, userID uint, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		zap.L().Warn("rate limit check failed, allowing action",
			zap.Uint("user_id", userID),
			zap.String("action", action),
			zap.Error(err),
		)
		return true, nil
	}

	return wasSet, nil
}

func TTL(ctx context.Context, rdb *redis.Client, userID uint, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, action)).Result()
}

func Clear(ctx context.Context, rdb *redis.Client, userID uint, action string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(userID, action)).Result()
	return err
}

// Acquire takes the cooldown for action. The returned release func gives it
// back so a failed attempt does not count against the user.
func Acquire(ctx context.Context, rdb *redis.Client, userID uint, action string, limit time.Duration) (func(), error) {
	allowed, err := CheckAndSet(ctx, rdb, userID, action, limit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := TTL(ctx, rdb, userID, action)
		return nil, apperror.New(http.StatusTooManyRequests,
			fmt.Sprintf("you are doing that too fast. Please wait %.0f seconds", ttl.Seconds()),
			apperror.ErrRateLimitExceeded)
	}

	release := func() {
		_ = Clear(context.WithoutCancel(ctx), rdb, userID, action)
	}
	return release, nil
}
