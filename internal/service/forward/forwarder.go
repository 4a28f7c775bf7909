package forward

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/questworld/questbot/internal/model/quest"
)

// Forwarder transmits one completed location+quest payload to the realtime
// backend. No retry, dedup, or ordering across calls.
type Forwarder interface {
	Forward(ctx context.Context, payload quest.ForwardPayload) error
}

// Async decorates a Forwarder so dispatch never blocks the conversation
// flow: Forward returns immediately and the inner forward runs in its own
// goroutine under a bounded timeout. Failures are logged, never surfaced.
type Async struct {
	inner   Forwarder
	timeout time.Duration
}

// NewAsync wraps inner with fire-and-forget dispatch. timeout bounds each
// background forward, connection attempt included.
func NewAsync(inner Forwarder, timeout time.Duration) *Async {
	return &Async{inner: inner, timeout: timeout}
}

// Forward dispatches the payload in the background and returns nil. A
// dispatched forward is not retractable, so the background context is
// detached from the caller's.
func (a *Async) Forward(_ context.Context, payload quest.ForwardPayload) error {
	dispatchID := uuid.NewString()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.inner.Forward(ctx, payload); err != nil {
			log.Printf("[forward] dispatch=%s user=%d failed: %v", dispatchID, payload.Identity, err)
			return
		}
		log.Printf("[forward] dispatch=%s user=%d sent", dispatchID, payload.Identity)
	}()
	return nil
}
