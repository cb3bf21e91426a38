package periodic

import (
	"context"
	"sync"
	"time"
)

// Option configures Start.
type Option func(*periodic)

// Stopper stops a periodic task started with Start.
type Stopper interface {
	Stop()
}

// Tick is passed to periodic task callbacks.
type Tick struct {
	// Elapsed is the time elapsed since the task has been started.
	Elapsed time.Duration
	Time    time.Time
}

// Immediate runs the callback once right away instead of waiting for the first tick.
func Immediate() Option {
	return func(p *periodic) {
		p.immediate = true
	}
}

// OnStop configures a callback that is executed when a periodic task is stopped or canceled.
func OnStop(f func(Tick)) Option {
	return func(p *periodic) {
		p.onStop = f
	}
}

// Start calls callback every interval until ctx is done or Stop is called on the returned Stopper.
// Callbacks never overlap. The interval must be greater than zero.
func Start(ctx context.Context, interval time.Duration, callback func(Tick), options ...Option) Stopper {
	p := &periodic{}
	for _, option := range options {
		option(p)
	}

	ctx, cancel := context.WithCancel(ctx)
	start := time.Now()

	tick := func(t time.Time) Tick {
		return Tick{Elapsed: t.Sub(start), Time: t}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if p.immediate {
			callback(tick(time.Now()))
		}

	loop:
		for {
			select {
			case t := <-ticker.C:
				callback(tick(t))
			case <-ctx.Done():
				break loop
			}
		}

		if p.onStop != nil {
			p.onStop(tick(time.Now()))
		}
	}()

	return stopperFunc(func() {
		p.stop.Do(cancel)
	})
}

type stopperFunc func()

func (f stopperFunc) Stop() {
	f()
}

type periodic struct {
	immediate bool
	onStop    func(Tick)
	stop      sync.Once
}
