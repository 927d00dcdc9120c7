package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// DailySubmissionLimiter caps how many issues a resident may open per UTC
// day. The counter lives in Redis under a per-resident, per-day key with a
// 24h TTL so it expires on its own. When Redis is unreachable the limiter
// fails open; submissions matter more than the cap.
type DailySubmissionLimiter struct {
	redis  *persistence.Redis
	limit  int
	logger *zap.Logger
}

// NewDailySubmissionLimiter constructs the limiter. A limit of zero or less
// disables it.
func NewDailySubmissionLimiter(redis *persistence.Redis, limit int, logger *zap.Logger) *DailySubmissionLimiter {
	return &DailySubmissionLimiter{redis: redis, limit: limit, logger: logger}
}

// Handle enforces the cap for the authenticated resident.
func (l *DailySubmissionLimiter) Handle(c *fiber.Ctx) error {
	if l.limit <= 0 || l.redis == nil || l.redis.Client == nil {
		return c.Next()
	}
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return c.Next()
	}

	key := fmt.Sprintf("ratelimit:issues:%s:%s", principal.User.ID, time.Now().UTC().Format("2006-01-02"))
	count, err := l.redis.Client.Incr(c.Context(), key).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
		return c.Next()
	}
	if count == 1 {
		l.redis.Client.Expire(c.Context(), key, 24*time.Hour)
	}
	if count > int64(l.limit) {
		return apperrors.NewConflict(fmt.Sprintf("daily submission limit of %d reached", l.limit), nil)
	}
	return c.Next()
}
