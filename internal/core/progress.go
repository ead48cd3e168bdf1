package core

import (
	"context"
	"time"

	"chronocheck/pkg"
)

// StreamProgress emits the cosmetic "analyzing" steps of a workflow, one per
// interval. It is driven by its own ticker and knows nothing about the
// backend call it decorates. The channel closes after the final event or
// when ctx is done.
func StreamProgress(ctx context.Context, steps []string, interval time.Duration) <-chan pkg.ProgressEvent {
	out := make(chan pkg.ProgressEvent)
	go func() {
		defer close(out)
		if len(steps) == 0 {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i, label := range steps {
			ev := pkg.ProgressEvent{Step: i + 1, Total: len(steps), Label: label, Done: i == len(steps)-1}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Done {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
