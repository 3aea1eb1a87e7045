package pacer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// waitEpsilon is the smallest wait worth sleeping for, in seconds.
const waitEpsilon = 0.0001

// Limiter enforces a sliding-window burst limit over one action class.
//
// Callers bracket each throttled action between Acquire (which may sleep
// until the window has room) and Release (which records the action's
// timestamp and trims the window). Two acquisition flavors are offered:
// the blocking Acquire and the context-aware AcquireContext. Both
// serialize against the same mutex, so either flavor sees one consistent
// view of the window.
//
// Ordering across waiting callers is best-effort FIFO within one flavor;
// there is no fairness guarantee between the two flavors.
type Limiter struct {
	def       Definition
	burst     int
	windowSec float64
	disabled  bool

	mu    sync.Mutex
	queue timeQueue

	clock    Clock
	logger   *zap.Logger
	observer Observer
}

// Option is a functional option for configuring a Limiter.
type Option func(*Limiter) error

// WithClock sets the monotonic time source. Defaults to NewSystemClock.
func WithClock(clock Clock) Option {
	return func(l *Limiter) error {
		if clock == nil {
			return fmt.Errorf("%w: clock cannot be nil", ErrInvalidConfig)
		}
		l.clock = clock
		return nil
	}
}

// WithLogger sets the debug logger. The default is a nop logger, so the
// limiter is silent unless one is wired in.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
		}
		l.logger = logger
		return nil
	}
}

// WithObserver registers an observer for acquire and release events.
func WithObserver(obs Observer) Option {
	return func(l *Limiter) error {
		l.observer = obs
		return nil
	}
}

// NewLimiter creates a limiter for the given definition.
//
// The requested burst limit is normalized to max(floor(limit)-1, 1), so a
// configured limit of 1 still admits one action per window. A window of
// zero or less disables the limiter entirely: every operation becomes a
// no-op.
func NewLimiter(def Definition, opts ...Option) (*Limiter, error) {
	burst := int(math.Floor(def.BurstLimit)) - 1
	if burst < 1 {
		burst = 1
	}

	l := &Limiter{
		def:       def,
		burst:     burst,
		windowSec: def.WindowSec,
		disabled:  def.WindowSec <= 0,
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if l.clock == nil {
		l.clock = NewSystemClock()
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	return l, nil
}

// Acquire blocks until the window has room. When the queue is at the burst
// limit the caller sleeps inside the critical section, so concurrent
// blocking acquirers serialize through the wait.
func (l *Limiter) Acquire() {
	if l.disabled {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var waited float64
	if l.queue.len() >= l.burst {
		if wait := l.waitSeconds(); wait > waitEpsilon {
			l.logger.Debug("window full, sleeping",
				zap.String("namespace", l.def.Namespace),
				zap.String("action", l.def.Action),
				zap.Float64("wait_sec", wait),
			)
			l.clock.Sleep(wait)
			waited = wait
		}
	}

	if l.observer != nil {
		l.observer.OnAcquire(l.def.Namespace, l.def.Action, waited)
	}
}

// AcquireContext is the cooperative flavor of Acquire. The wait is computed
// under the mutex but slept outside it, against a context-aware timer.
//
// Cancellation during the wait returns an error wrapping ErrWaitCanceled
// and leaves no trace in the window: timestamps are recorded only by
// Release.
func (l *Limiter) AcquireContext(ctx context.Context) error {
	if l.disabled {
		return nil
	}

	l.mu.Lock()
	var wait float64
	if l.queue.len() >= l.burst {
		wait = l.waitSeconds()
	}
	l.mu.Unlock()

	var waited float64
	if wait > waitEpsilon {
		l.logger.Debug("window full, suspending",
			zap.String("namespace", l.def.Namespace),
			zap.String("action", l.def.Action),
			zap.Float64("wait_sec", wait),
		)
		if err := sleepContext(ctx, secondsToDuration(wait)); err != nil {
			return fmt.Errorf("%w: %v", ErrWaitCanceled, err)
		}
		waited = wait
	}

	if l.observer != nil {
		l.observer.OnAcquire(l.def.Namespace, l.def.Action, waited)
	}

	return nil
}

// Release records the action's timestamp and trims the window. It must run
// on every exit path of the guarded action, success or failure; the Do
// helpers guarantee that. Release never sleeps.
func (l *Limiter) Release() {
	if l.disabled {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	cleared := false
	if l.queue.len() > 0 && now-l.windowSec >= l.queue.back() {
		// The whole window went idle; nothing in the queue is current.
		l.queue.clear()
		cleared = true
	}

	l.queue.push(round4(now))

	trimmed := 0
	for l.queue.span() >= l.windowSec {
		l.queue.popFront()
		trimmed++
	}

	if cleared || trimmed > 0 {
		l.logger.Debug("window trimmed",
			zap.String("namespace", l.def.Namespace),
			zap.String("action", l.def.Action),
			zap.Int("queue_len", l.queue.len()),
			zap.Int("trimmed", trimmed),
			zap.Bool("idle_cleared", cleared),
		)
	}

	if l.observer != nil {
		l.observer.OnRelease(l.def.Namespace, l.def.Action, l.queue.len(), trimmed, cleared)
	}
}

// Do runs fn inside a blocking acquisition scope. Release runs on every
// exit path, including a panic in fn.
func (l *Limiter) Do(fn func() error) error {
	l.Acquire()
	defer l.Release()
	return fn()
}

// DoContext runs fn inside a context-aware acquisition scope. If the wait
// is canceled, fn never runs and the window is left untouched.
func (l *Limiter) DoContext(ctx context.Context, fn func(context.Context) error) error {
	if err := l.AcquireContext(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// QueueLen returns the current window queue length.
func (l *Limiter) QueueLen() int {
	if l.disabled {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.len()
}

// Burst returns the normalized burst limit.
func (l *Limiter) Burst() int {
	return l.burst
}

// Window returns the window size in seconds.
func (l *Limiter) Window() float64 {
	return l.windowSec
}

// Disabled reports whether the limiter is a no-op.
func (l *Limiter) Disabled() bool {
	return l.disabled
}

// Definition returns the definition the limiter was built from.
func (l *Limiter) Definition() Definition {
	return l.def
}

// waitSeconds computes the sleep needed for the oldest entry to fall out
// of the window, capped at the window size. Callers must hold l.mu and
// ensure the queue is non-empty.
func (l *Limiter) waitSeconds() float64 {
	wait := round4(l.windowSec + l.queue.front() - l.queue.back())
	if wait > l.windowSec {
		wait = l.windowSec
	}
	return wait
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// sleepContext sleeps for d but respects context cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
