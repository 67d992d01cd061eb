package sleepcheck

import (
	"context"
	"time"
)

func throttle() {
	time.Sleep(time.Second) // want "time.Sleep ignores context cancellation"
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
