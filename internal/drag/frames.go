package drag

import (
	"context"
	"time"
)

// DefaultFrameInterval is roughly one display frame at 60 Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// RunFrames calls schedule(tick) every interval until ctx is done. schedule
// hands tick to the goroutine that owns the controller (fyne.Do in the UI).
// It returns ctx.Err().
func RunFrames(ctx context.Context, interval time.Duration, schedule func(func()), tick func()) error {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			schedule(tick)
		}
	}
}
