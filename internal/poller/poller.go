// Package poller owns the timer loop that triggers poll cycles. The
// defining property is rearm-after-completion: the next cycle is
// scheduled only after the previous one has fully returned, so a slow or
// timed-out fetch delays the next attempt by its own duration instead of
// overlapping it. There is never more than one cycle in flight.
package poller

import (
	"context"
	"sync"
	"time"
)

// Cycle is one full poll pass. The context is canceled when the poller
// is stopped; a cycle already past its fetch should check the context
// and discard its result rather than publishing after stop.
type Cycle func(ctx context.Context)

// Poller runs a Cycle repeatedly with a fixed interval between the end
// of one run and the start of the next.
type Poller struct {
	interval time.Duration
	cycle    Cycle

	// after is time.After in production; tests inject their own trigger.
	after func(time.Duration) <-chan time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Poller that runs cycle every interval, measured from
// cycle completion.
func New(interval time.Duration, cycle Cycle) *Poller {
	return &Poller{
		interval: interval,
		cycle:    cycle,
		after:    time.After,
	}
}

// Start launches the loop. The first cycle runs immediately. Calling
// Start on a running poller is a no-op — it never produces a second
// loop or an overlapping fetch.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(ctx, p.done)
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		p.cycle(ctx)

		// Rearm strictly after completion, not on a wall clock.
		select {
		case <-p.after(p.interval):
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the pending rearm timer and waits for the loop to exit.
// An in-flight cycle finishes on its own; its context is canceled so it
// discards its result. Stop is idempotent and safe to call on a poller
// that was never started.
func (p *Poller) Stop() {
	// The lock is held across the drain so a concurrent Start cannot
	// launch a new loop while the old cycle is still finishing. The loop
	// itself never takes the lock.
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false

	p.cancel()
	<-p.done
}
