// Package pacer provides sliding-window rate limiting and jittered retry
// backoff for throttling repeated actions against a remote service.
//
// Two complementary mechanisms are offered: a per-action-class burst limit
// over a rolling time window, and a precomputed exponential backoff curve
// with bounded jitter for spacing out retries after failures.
//
// # Quick Start
//
// Throttle an action with a built-in policy:
//
//	defs, _ := pacer.NewRegistry(pacer.BuiltinDefinitions()...)
//	limiter, err := defs.Limiter("api_action", "send_message--user")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = limiter.Do(func() error {
//	    return sendMessage(msg)
//	})
//
// Do acquires window room (sleeping if the burst limit was hit), runs the
// action, and always releases the scope, recording the action's timestamp.
//
// # Context-Aware Throttling
//
// For callers that must remain cancelable, DoContext waits with a timer
// that respects the context:
//
//	err := limiter.DoContext(ctx, func(ctx context.Context) error {
//	    return sendMessage(ctx, msg)
//	})
//
// A cancellation during the wait leaves the window untouched; timestamps
// are only recorded on release.
//
// # Retry Backoff
//
// A Curve precomputes a monotonic delay ladder indexed by attempt number,
// with threshold-gated jitter and a one-way saturation latch:
//
//	curve, _ := pacer.NewCurve()
//	delay, err := curve.Sample(attempt, true)
//	if errors.Is(err, pacer.ErrAttemptsExhausted) {
//	    return err // stop retrying
//	}
//
// PooledSample draws from precomputed per-attempt pools of jittered
// variants, trading memory for per-call compute. DelayCalculator composes
// a pooled sample with a minimum-delay floor:
//
//	calc := pacer.NewDelayCalculator(curve)
//	delay, err := calc.NextDelay(previousDelay, 0.5)
//
// # Policies
//
// Definitions are declarative (namespace, action, burst limit, window)
// tuples. Register your own alongside the built-ins:
//
//	defs, _ := pacer.NewRegistry(pacer.BuiltinDefinitions()...)
//	err := defs.Register(pacer.Definition{
//	    Namespace:  "api_action",
//	    Action:     "upload_media",
//	    BurstLimit: 10,
//	    WindowSec:  5,
//	})
//
// A window of zero or less disables a limiter: every acquisition passes
// through instantly.
//
// # Concurrency
//
// A limiter's window queue is guarded by a single mutex shared by both
// acquisition flavors, so blocking and context-aware callers always see
// one consistent window. Curve tables are immutable after construction;
// the saturation latch and random source are mutex-guarded, so one curve
// can serve many goroutines. Run tests with -race.
//
// # Observability
//
// An Observer receives acquire, release, and sample events. The metrics
// package ships an atomic snapshot recorder and a Prometheus collector;
// a zap logger can be wired in for debug traces. Neither affects
// correctness.
package pacer
