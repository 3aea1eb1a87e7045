package pacer

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func testCurve(t *testing.T, opts ...CurveOption) *Curve {
	t.Helper()
	opts = append([]CurveOption{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	c, err := NewCurve(opts...)
	if err != nil {
		t.Fatalf("NewCurve() failed: %v", err)
	}
	return c
}

func TestCurveConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CurveConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*CurveConfig) {}, wantErr: false},
		{name: "base at 1", mutate: func(c *CurveConfig) { c.Base = 1 }, wantErr: true},
		{name: "zero min", mutate: func(c *CurveConfig) { c.Min = 0 }, wantErr: true},
		{name: "max below min", mutate: func(c *CurveConfig) { c.Max = c.Min / 2 }, wantErr: true},
		{name: "attempt cap too small", mutate: func(c *CurveConfig) { c.MaxAttempts = 3 }, wantErr: true},
		{name: "zero pool size", mutate: func(c *CurveConfig) { c.PoolSize = 0 }, wantErr: true},
		{name: "negative precision", mutate: func(c *CurveConfig) { c.Precision = -1 }, wantErr: true},
		{name: "zero jitter bound", mutate: func(c *CurveConfig) { c.JitterBound = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCurveConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestCurveRawValuesMonotonic(t *testing.T) {
	c := testCurve(t)
	cfg := c.Config()

	prev := 0.0
	for a := 1; a <= cfg.MaxAttempts; a++ {
		if c.values[a] < prev {
			t.Fatalf("raw value at attempt %d decreased: %f < %f", a, c.values[a], prev)
		}
		prev = c.values[a]
	}

	if got := c.values[cfg.MaxAttempts]; got != cfg.Max {
		t.Errorf("raw value at cap = %f, want %f", got, cfg.Max)
	}
}

func TestCurveSampleBelowBoundDeterministic(t *testing.T) {
	c := testCurve(t)

	// The first attempts sit below the jitter bound, so repeated samples
	// are exact regardless of the jitter flag.
	for _, attempt := range []int{1, 2, 3} {
		plain, err := c.Sample(attempt, false)
		if err != nil {
			t.Fatalf("Sample(%d, false) failed: %v", attempt, err)
		}
		jittered, err := c.Sample(attempt, true)
		if err != nil {
			t.Fatalf("Sample(%d, true) failed: %v", attempt, err)
		}
		if plain != jittered {
			t.Errorf("Sample(%d) = %f with jitter, %f without; want equal below bound", attempt, jittered, plain)
		}
		again, _ := c.Sample(attempt, false)
		if plain != again {
			t.Errorf("Sample(%d, false) not deterministic: %f then %f", attempt, plain, again)
		}
	}

	// Attempt 1 is the base raised to itself: 2^2.
	if got, _ := c.Sample(1, false); got != 4.0 {
		t.Errorf("Sample(1, false) = %f, want 4.0", got)
	}
}

func TestCurveSampleJitterAboveBound(t *testing.T) {
	c := testCurve(t)
	cfg := c.Config()

	// Find the first attempt above the jitter bound.
	attempt := 0
	for a := 1; a <= cfg.MaxAttempts; a++ {
		if c.values[a] > cfg.JitterBound {
			attempt = a
			break
		}
	}
	if attempt == 0 {
		t.Fatal("no attempt above jitter bound")
	}

	raw := c.values[attempt]
	seen := make(map[float64]bool)
	for i := 0; i < 50; i++ {
		v, err := c.Sample(attempt, true)
		if err != nil {
			t.Fatalf("Sample(%d, true) failed: %v", attempt, err)
		}
		if v < cfg.Min || v > cfg.Max {
			t.Fatalf("Sample(%d, true) = %f, outside [%f, %f]", attempt, v, cfg.Min, cfg.Max)
		}
		seen[v] = true
	}
	if len(seen) < 2 {
		t.Errorf("Sample(%d, true) produced a single value %v; want jittered spread around %f", attempt, seen, raw)
	}
}

func TestCurveSampleZeroAttempt(t *testing.T) {
	c := testCurve(t)

	got, err := c.Sample(0, false)
	if err != nil {
		t.Fatalf("Sample(0, false) failed: %v", err)
	}
	if got != NoDelay {
		t.Errorf("Sample(0, false) = %f, want NoDelay sentinel", got)
	}

	if got, _ := c.Sample(-3, true); got != NoDelay {
		t.Errorf("Sample(-3, true) = %f, want NoDelay sentinel", got)
	}
}

func TestCurveSampleExhausted(t *testing.T) {
	c := testCurve(t)
	cfg := c.Config()

	_, err := c.Sample(cfg.MaxAttempts+1, false)
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Sample(cap+1) error = %v, want ErrAttemptsExhausted", err)
	}

	_, err = c.PooledSample(cfg.MaxAttempts+1, false)
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("PooledSample(cap+1) error = %v, want ErrAttemptsExhausted", err)
	}
}

func TestCurveSaturationLatch(t *testing.T) {
	c := testCurve(t)
	cfg := c.Config()

	if c.Saturated() {
		t.Fatal("fresh curve should not be saturated")
	}

	got, err := c.Sample(cfg.MaxAttempts, false)
	if err != nil {
		t.Fatalf("Sample(cap) failed: %v", err)
	}
	if got != cfg.Max {
		t.Fatalf("Sample(cap) = %f, want %f", got, cfg.Max)
	}
	if !c.Saturated() {
		t.Fatal("curve should be saturated after producing the max value")
	}

	// The latch is terminal: every later sample returns the max, whatever
	// the attempt.
	for _, attempt := range []int{1, 0, 50, cfg.MaxAttempts} {
		if got, _ := c.Sample(attempt, true); got != cfg.Max {
			t.Errorf("Sample(%d) after saturation = %f, want %f", attempt, got, cfg.Max)
		}
	}

	// The cap check still applies.
	if _, err := c.Sample(cfg.MaxAttempts+1, false); !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Sample(cap+1) after saturation error = %v, want ErrAttemptsExhausted", err)
	}
}

func TestPooledSampleIndependentOfLatch(t *testing.T) {
	c := testCurve(t)
	cfg := c.Config()

	// Saturate via the non-pooled entry point.
	if _, err := c.Sample(cfg.MaxAttempts, false); err != nil {
		t.Fatalf("Sample(cap) failed: %v", err)
	}

	// Pooled sampling still draws from the small-attempt pools.
	v, err := c.PooledSample(1, false)
	if err != nil {
		t.Fatalf("PooledSample(1, false) failed: %v", err)
	}
	if v == cfg.Max {
		t.Errorf("PooledSample(1) = %f; pooled sampling must ignore the latch", v)
	}

	// And pooled sampling never sets the latch on a fresh curve.
	fresh := testCurve(t)
	for i := 0; i < 200; i++ {
		if _, err := fresh.PooledSample(fresh.Config().MaxAttempts, true); err != nil {
			t.Fatalf("PooledSample failed: %v", err)
		}
	}
	if fresh.Saturated() {
		t.Error("PooledSample set the saturation latch")
	}
}

func TestPooledSampleRangeAndSubstitution(t *testing.T) {
	c := testCurve(t)
	cfg := c.Config()

	for _, attempt := range []int{0, 1, 2, 10, 50, cfg.MaxAttempts} {
		for i := 0; i < 20; i++ {
			v, err := c.PooledSample(attempt, i%2 == 0)
			if err != nil {
				t.Fatalf("PooledSample(%d) failed: %v", attempt, err)
			}
			if v < cfg.Min || v > cfg.Max {
				t.Errorf("PooledSample(%d) = %f, outside [%f, %f]", attempt, v, cfg.Min, cfg.Max)
			}
		}
	}

	// An unset attempt substitutes a pool in [2,4]: the drawn values must
	// stay near the bottom of the curve, far under the attempt-10 raw value.
	for i := 0; i < 50; i++ {
		v, err := c.PooledSample(0, false)
		if err != nil {
			t.Fatalf("PooledSample(0) failed: %v", err)
		}
		if v > c.values[5]+math.Exp(halfPi) {
			t.Errorf("PooledSample(0) = %f, not drawn from the [2,4] pools", v)
		}
	}
}

func TestPooledSampleDeterministicWithSeed(t *testing.T) {
	a := testCurve(t)
	b := testCurve(t)

	for i := 0; i < 30; i++ {
		va, err := a.PooledSample(0, true)
		if err != nil {
			t.Fatalf("PooledSample failed: %v", err)
		}
		vb, err := b.PooledSample(0, true)
		if err != nil {
			t.Fatalf("PooledSample failed: %v", err)
		}
		if va != vb {
			t.Fatalf("same-seed curves diverged at draw %d: %f != %f", i, va, vb)
		}
	}
}

func TestCurveGapSurfaced(t *testing.T) {
	c := testCurve(t)

	// Should be unreachable with a valid construction; force it to check
	// the failure is surfaced rather than recovered.
	c.values[7] = 0
	_, err := c.Sample(7, false)
	if !errors.Is(err, ErrCurveGap) {
		t.Errorf("Sample(7) with empty slot error = %v, want ErrCurveGap", err)
	}
}

func TestCurveOptionErrors(t *testing.T) {
	if _, err := NewCurve(WithRand(nil)); err == nil {
		t.Error("NewCurve(WithRand(nil)) expected error")
	}
	bad := DefaultCurveConfig()
	bad.Base = 0.5
	if _, err := NewCurve(WithCurveConfig(bad)); err == nil {
		t.Error("NewCurve with invalid config expected error")
	}
}
