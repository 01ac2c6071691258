package mission

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Resilient applies the fallback policy around a primary Provider: on transport
// failure, timeout, or an unusable mission, the fallback's mission is returned
// instead. It never retries.
type Resilient struct {
	primary  Provider
	fallback Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewResilient wraps primary with fallback.
//
// Precondition: primary, fallback, and logger must be non-nil; timeout >= 0 (0 disables it).
func NewResilient(primary, fallback Provider, timeout time.Duration, logger *zap.Logger) *Resilient {
	if primary == nil || fallback == nil || logger == nil {
		panic("mission.NewResilient: primary, fallback, and logger must be non-nil")
	}
	return &Resilient{primary: primary, fallback: fallback, timeout: timeout, logger: logger}
}

// Generate asks the primary provider for a mission and substitutes the fallback
// when the primary fails or returns an invalid mission.
//
// Postcondition: returns an error only if the request is invalid or the fallback fails.
func (r *Resilient) Generate(ctx context.Context, req Request) (Mission, error) {
	if err := req.Validate(); err != nil {
		return Mission{}, err
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	m, err := r.primary.Generate(callCtx, req)
	if err == nil {
		err = m.Validate()
	}
	if err == nil {
		return m, nil
	}

	r.logger.Warn("mission generation failed, using fallback",
		zap.Int("player_level", req.PlayerLevel),
		zap.Error(err),
	)
	fb, fbErr := r.fallback.Generate(ctx, req)
	if fbErr != nil {
		return Mission{}, fmt.Errorf("mission fallback: %w", fbErr)
	}
	return fb, nil
}
