package pacer

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

// halfPi is pi/2 rounded to the default precision. It bounds the exponent
// of the additive jitter term and derives the jitter threshold.
const halfPi = 1.571

// NoDelay is returned by Curve.Sample for attempts <= 0. It is a distinct
// sentinel so "no previous attempt" can be told apart from a genuine
// zero-length delay.
const NoDelay float64 = -1

// CurveConfig holds the numeric shape of a backoff curve. The defaults pin
// the exact production behavior; compatibility tests rely on them.
type CurveConfig struct {
	// Base is the exponent base of the growth curve.
	Base float64

	// Min and Max clamp every produced delay, in seconds.
	Min float64
	Max float64

	// MaxAttempts caps the attempt index. Requests beyond it fail with
	// ErrAttemptsExhausted.
	MaxAttempts int

	// PoolSize is the number of pre-jittered variants kept per attempt for
	// PooledSample.
	PoolSize int

	// Precision is the number of decimal places delays are rounded to.
	Precision int

	// JitterBound is the raw-value threshold above which additive jitter
	// may apply. At or below it, Sample is deterministic.
	JitterBound float64
}

// DefaultCurveConfig returns the production curve shape: base-2 growth from
// 4s to ~3.5 days across 100 attempts, 33-entry pools, millisecond
// precision.
func DefaultCurveConfig() CurveConfig {
	return CurveConfig{
		Base:        2,
		Min:         0.01,
		Max:         302400.012,
		MaxAttempts: 100,
		PoolSize:    33,
		Precision:   3,
		JitterBound: math.Exp(halfPi) * 1.111,
	}
}

// Validate checks if the curve configuration is usable.
func (c *CurveConfig) Validate() error {
	if c.Base <= 1 {
		return fmt.Errorf("%w: base must be greater than 1", ErrInvalidConfig)
	}
	if c.Min <= 0 || c.Max <= c.Min {
		return fmt.Errorf("%w: need 0 < min < max", ErrInvalidConfig)
	}
	// PooledSample substitutes attempts in [2,4] when none is given.
	if c.MaxAttempts < 4 {
		return fmt.Errorf("%w: max attempts must be at least 4", ErrInvalidConfig)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: pool size must be positive", ErrInvalidConfig)
	}
	if c.Precision < 0 {
		return fmt.Errorf("%w: precision cannot be negative", ErrInvalidConfig)
	}
	if c.JitterBound <= 0 {
		return fmt.Errorf("%w: jitter bound must be positive", ErrInvalidConfig)
	}
	return nil
}

// Curve is a precomputed backoff delay curve indexed by attempt number.
//
// The raw curve is log-spaced exponential growth clamped to [Min, Max] and
// is non-decreasing in the attempt index. Alongside it, the curve keeps a
// fixed-size pool of pre-jittered variants per attempt so PooledSample can
// return varied delays without recomputing jitter.
//
// Sample carries a one-way saturation latch: once any produced value
// reaches Max, every later Sample call returns Max for the lifetime of the
// instance. PooledSample never consults or updates the latch.
//
// The tables are immutable after construction. The latch and the random
// source are the only mutable state and are guarded by a mutex, so one
// Curve may be shared by concurrent callers.
type Curve struct {
	cfg      CurveConfig
	values   []float64   // raw curve, indexed 1..MaxAttempts
	pools    [][]float64 // pre-jittered variants, indexed 1..MaxAttempts
	observer Observer

	mu        sync.Mutex // guards lastValue and rng
	lastValue float64
	rng       *rand.Rand
}

// CurveOption is a functional option for configuring a Curve.
type CurveOption func(*Curve) error

// WithCurveConfig replaces the default curve shape.
func WithCurveConfig(cfg CurveConfig) CurveOption {
	return func(c *Curve) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.cfg = cfg
		return nil
	}
}

// WithRand sets the random source used for jitter and pool draws. Handy for
// deterministic tests; the default source is seeded from crypto/rand.
func WithRand(rng *rand.Rand) CurveOption {
	return func(c *Curve) error {
		if rng == nil {
			return fmt.Errorf("%w: rand source cannot be nil", ErrInvalidConfig)
		}
		c.rng = rng
		return nil
	}
}

// WithCurveObserver registers an observer for produced samples.
func WithCurveObserver(obs Observer) CurveOption {
	return func(c *Curve) error {
		c.observer = obs
		return nil
	}
}

// NewCurve precomputes a backoff curve. Construction fills the raw curve
// and the jittered pools; the saturation latch starts unset.
func NewCurve(opts ...CurveOption) (*Curve, error) {
	c := &Curve{cfg: DefaultCurveConfig()}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if c.rng == nil {
		c.rng = newSeededRand()
	}

	n := c.cfg.MaxAttempts

	// Exponents run from Base itself up to log_Base(Max), so the last raw
	// value lands exactly on Max.
	startExp := c.cfg.Base
	stopExp := math.Log(c.cfg.Max) / math.Log(c.cfg.Base)

	c.values = make([]float64, n+1)
	for a := 1; a <= n; a++ {
		exp := startExp + (stopExp-startExp)*float64(a-1)/float64(n-1)
		c.values[a] = c.clamp(math.Pow(c.cfg.Base, exp))
	}

	c.pools = make([][]float64, n+1)
	for a := 1; a <= n; a++ {
		row := make([]float64, c.cfg.PoolSize)
		for i := range row {
			row[i] = c.conform(c.jittered(c.values[a]))
		}
		c.pools[a] = row
	}

	return c, nil
}

// Sample returns the curve delay for the given attempt, in seconds.
//
// Attempts above the cap fail with ErrAttemptsExhausted. Attempts <= 0
// return the NoDelay sentinel. Once the latch is set, Sample returns Max
// regardless of attempt.
//
// Jitter applies only when requested and only when the raw value exceeds
// the configured bound; at or below the bound the result is the exact
// clamped curve value, deterministically.
func (c *Curve) Sample(attempt int, jitter bool) (float64, error) {
	if attempt > c.cfg.MaxAttempts {
		return 0, fmt.Errorf("%w: attempt %d exceeds cap %d", ErrAttemptsExhausted, attempt, c.cfg.MaxAttempts)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastValue >= c.cfg.Max {
		return c.conform(c.cfg.Max), nil
	}

	if attempt <= 0 {
		return NoDelay, nil
	}

	raw := c.values[attempt]
	if raw == 0 {
		return 0, fmt.Errorf("%w: attempt %d", ErrCurveGap, attempt)
	}

	v := raw
	if jitter {
		v = c.jittered(raw)
	}

	v = c.conform(v)
	c.lastValue = v

	if c.observer != nil {
		c.observer.OnSample(attempt, v)
	}

	return v, nil
}

// PooledSample draws a pre-jittered delay from the attempt's pool.
//
// Attempts above the cap fail with ErrAttemptsExhausted. Attempts <= 0 are
// substituted with a random attempt in [2,4], avoiding the smallest and
// least representative pool. When jitter is requested, the drawn value is
// scaled by uniform(1,e)/uniform(1,pi), a factor concentrated near 1.
//
// PooledSample is independent of the saturation latch.
func (c *Curve) PooledSample(attempt int, jitter bool) (float64, error) {
	if attempt > c.cfg.MaxAttempts {
		return 0, fmt.Errorf("%w: attempt %d exceeds cap %d", ErrAttemptsExhausted, attempt, c.cfg.MaxAttempts)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if attempt <= 0 {
		attempt = 2 + c.rng.IntN(3)
	}

	row := c.pools[attempt]
	v := row[c.rng.IntN(len(row))]

	if jitter {
		v *= c.uniform(1, math.E) / c.uniform(1, math.Pi)
	}

	v = c.conform(v)

	if c.observer != nil {
		c.observer.OnSample(attempt, v)
	}

	return v, nil
}

// LastValue returns the most recent value produced by Sample, or 0 if
// Sample has not produced one yet.
func (c *Curve) LastValue() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastValue
}

// Saturated reports whether the one-way latch is set. It never resets.
func (c *Curve) Saturated() bool {
	return c.LastValue() >= c.cfg.Max
}

// Config returns a copy of the curve configuration.
func (c *Curve) Config() CurveConfig {
	return c.cfg
}

// jittered applies the threshold-gated additive jitter: values at or below
// the bound pass through untouched; above it, e^uniform(Min, halfPi) is
// added or subtracted with equal probability. Callers must hold c.mu when
// the curve is shared (construction runs before any sharing).
func (c *Curve) jittered(v float64) float64 {
	if v <= c.cfg.JitterBound {
		return v
	}

	term := math.Exp(c.uniform(c.cfg.Min, halfPi))
	if c.rng.IntN(2) == 0 {
		return v + term
	}
	return v - term
}

func (c *Curve) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*c.rng.Float64()
}

func (c *Curve) clamp(v float64) float64 {
	return math.Max(math.Min(v, c.cfg.Max), c.cfg.Min)
}

// conform clamps into [Min, Max] and rounds to the configured precision.
func (c *Curve) conform(v float64) float64 {
	pow := math.Pow(10, float64(c.cfg.Precision))
	return math.Round(c.clamp(v)*pow) / pow
}
