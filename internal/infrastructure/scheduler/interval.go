package scheduler

import (
	"context"
	"sync"
	"time"

	"NewsAgent/internal/ports"
)

// IntervalScheduler runs a job immediately and then every interval using time.Ticker.
type IntervalScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	reset    chan time.Duration
	stop     chan struct{}
	done     chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler; a non-positive interval disables ticking.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval}
}

// Start begins ticking. Calling it again while running is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	reset := make(chan time.Duration, 1)
	s.stop, s.done, s.reset = stop, done, reset
	interval := s.interval

	go func() {
		defer close(done)

		var (
			ticker *time.Ticker
			tick   <-chan time.Time
		)
		arm := func(d time.Duration) {
			if ticker != nil {
				ticker.Stop()
				ticker, tick = nil, nil
			}
			if d > 0 {
				ticker = time.NewTicker(d)
				tick = ticker.C
			}
		}
		defer arm(0)

		arm(interval)
		if interval > 0 {
			job(time.Now())
		}
		for {
			select {
			case t := <-tick:
				job(t)
			case d := <-reset:
				arm(d)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// SetInterval changes the period of a running scheduler, or of the next Start.
// A non-positive interval pauses ticking until a positive one is set.
func (s *IntervalScheduler) SetInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval == s.interval {
		return
	}
	s.interval = interval
	if s.reset == nil {
		return
	}

	// Only the latest pending value matters.
	select {
	case <-s.reset:
	default:
	}
	s.reset <- interval
}

// Interval reports the current period.
func (s *IntervalScheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Stop halts the ticker goroutine and waits for a running job to return.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done, s.reset = nil, nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
