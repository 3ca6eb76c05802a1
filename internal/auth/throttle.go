package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Throttle limits failed login attempts per email and client address.
type Throttle struct {
	limiter *limiter.Limiter
}

// NewThrottle allows maxAttempts failures per decay window.
func NewThrottle(maxAttempts int64, decay time.Duration) *Throttle {
	return &Throttle{
		limiter: limiter.New(memory.NewStore(), limiter.Rate{
			Period: decay,
			Limit:  maxAttempts,
		}),
	}
}

// ThrottleKey identifies a login attempt source.
func ThrottleKey(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// ChallengeThrottleKey identifies the two factor challenge of a pending login.
func ChallengeThrottleKey(userID uint64) string {
	return "two-factor|" + strconv.FormatUint(userID, 10)
}

// TooManyAttempts reports whether key is locked out and for how long.
func (t *Throttle) TooManyAttempts(ctx context.Context, key string) (bool, time.Duration, error) {
	lc, err := t.limiter.Peek(ctx, key)
	if err != nil {
		return false, 0, err
	}

	if lc.Remaining > 0 {
		return false, 0, nil
	}

	return true, time.Until(time.Unix(lc.Reset, 0)), nil
}

// Hit counts a failed attempt for key.
func (t *Throttle) Hit(ctx context.Context, key string) error {
	_, err := t.limiter.Get(ctx, key)

	return err
}

// Clear forgets the failures of key.
func (t *Throttle) Clear(ctx context.Context, key string) error {
	_, err := t.limiter.Reset(ctx, key)

	return err
}
