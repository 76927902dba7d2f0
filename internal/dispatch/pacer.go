package dispatch

import (
	"context"
	"time"
)

// Pacer waits between consecutive provider calls.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration)
}

// SleepPacer always blocks for the full delay.
type SleepPacer struct{}

func (SleepPacer) Pause(_ context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
