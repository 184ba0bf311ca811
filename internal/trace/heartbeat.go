package trace

import (
	"context"
	"fmt"
	"time"
)

// StartHeartbeat emits a heartbeat event every interval until ctx is done or
// the returned stop is called. stop waits for the goroutine and is safe to
// call more than once. A heartbeat with open>0 and no new span ends points
// at a stuck invocation.
func StartHeartbeat(ctx context.Context, tracer Tracer, interval time.Duration) (stop func()) {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				tracer.Emit(&Event{
					Time:   now,
					Seq:    NextSeq(),
					Kind:   KindHeartbeat,
					Scope:  ScopeCommand,
					Name:   "heartbeat",
					Detail: fmt.Sprintf("#%d open=%d", n, OpenSpans()),
				})
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
