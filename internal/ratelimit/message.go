package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/internlink/internal/apperr"
	"github.com/smallbiznis/internlink/internal/config"
	"go.uber.org/zap"
)

const keyMessageSender = "internlink:ratelimit:messages:%s"

var ErrRateLimited = apperr.RateLimited("rate_limited", "too many messages, try again shortly")

// MessageLimiter throttles chat messages per sender.
type MessageLimiter struct {
	bucket *TokenBucket
	log    *zap.Logger
	rate   float64
	burst  int
}

// NewMessageLimiter returns nil, which allows everything, when Redis is not
// configured or the limit is disabled.
func NewMessageLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *MessageLimiter {
	limits := cfg.RateLimit
	if client == nil || limits.MessagesPerMinute <= 0 || limits.MessageBurst <= 0 {
		return nil
	}
	return &MessageLimiter{
		bucket: NewTokenBucket(client),
		log:    log.Named("ratelimit.messages"),
		rate:   float64(limits.MessagesPerMinute) / 60,
		burst:  limits.MessageBurst,
	}
}

// Allow fails with ErrRateLimited once the sender's bucket is empty. Redis
// failures let the message through.
func (l *MessageLimiter) Allow(ctx context.Context, userID snowflake.ID) error {
	if l == nil || l.bucket == nil {
		return nil
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyMessageSender, userID), l.rate, l.burst)
	if err != nil {
		l.log.Warn("message rate limit check failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil
	}
	if !res.Allowed {
		return ErrRateLimited.WithMessagef("too many messages, retry in %s", res.RetryAfter.Round(time.Second))
	}
	return nil
}
