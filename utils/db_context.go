package utils

import (
	"context"
	"time"
)

// DefaultCallTimeout bounds a single DynamoDB or S3 call when no timeout is
// configured.
const DefaultCallTimeout = 30 * time.Second

// SlowCallTimeout is for report generation end to end.
const SlowCallTimeout = 5 * time.Minute

// GetCallContext returns a context with timeout for one outbound call.
// A nil parent falls back to context.Background and a non-positive timeout
// to DefaultCallTimeout.
func GetCallContext(parentCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return context.WithTimeout(parentCtx, timeout)
}

// GetSlowCallContext returns a context bounded by SlowCallTimeout.
func GetSlowCallContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetCallContext(parentCtx, SlowCallTimeout)
}
