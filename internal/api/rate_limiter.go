package api

import (
	"net/http"
	"sync"

	apperrors "github.com/coin-ledger/internal/errors"
	"github.com/coin-ledger/internal/types"
	"golang.org/x/time/rate"
)

// RateLimiter manages per-user token buckets sized by tier
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	freeTierLimit rate.Limit
	paidTierLimit rate.Limit

	burstSize int
}

// NewRateLimiter creates a new rate limiter from per-tier requests per second
func NewRateLimiter(freeTierRPS, paidTierRPS int) *RateLimiter {
	return &RateLimiter{
		limiters:      make(map[string]*rate.Limiter),
		freeTierLimit: rate.Limit(freeTierRPS),
		paidTierLimit: rate.Limit(paidTierRPS),
		burstSize:     10,
	}
}

// getLimiter returns the limiter for a user at a tier. A tier change gets a
// fresh bucket.
func (rl *RateLimiter) getLimiter(userID string, tier types.UserTier) *rate.Limiter {
	key := string(tier) + ":" + userID

	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	limit := rl.freeTierLimit
	if tier == types.TierPaid {
		limit = rl.paidTierLimit
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(limit, rl.burstSize)
	rl.limiters[key] = limiter

	return limiter
}

// RateLimitMiddleware creates a middleware that enforces rate limiting
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				userID = r.RemoteAddr
			}

			tier := types.UserTier(r.Header.Get("X-User-Tier"))
			switch tier {
			case "":
				tier = types.TierFree
			case types.TierFree, types.TierPaid:
			default:
				respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid tier (must be 'free' or 'paid')", nil)
				return
			}

			limiter := rl.getLimiter(userID, tier)
			if !limiter.Allow() {
				catErr := apperrors.NewRateLimitError(tier, float64(limiter.Limit()))
				respondError(w, catErr.StatusCode, catErr.Code, catErr.Message, catErr.Details)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
