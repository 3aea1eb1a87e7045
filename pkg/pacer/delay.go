package pacer

// DelayCalculator composes a pooled backoff sample with a minimum-delay
// floor to produce the next retry delay.
type DelayCalculator struct {
	curve *Curve
}

// NewDelayCalculator creates a calculator over the given curve.
func NewDelayCalculator(curve *Curve) *DelayCalculator {
	return &DelayCalculator{curve: curve}
}

// NextDelay returns the delay before the next retry, in seconds. A zero
// previous delay means "first retry"; a zero minVal means "no floor".
//
// With a previous delay the fresh jitter contributes its reciprocal, so
// consecutive delays creep upward rather than jumping. When the result
// lands at or under the floor it is bumped past it: by the full floor when
// well under (<= 0.777 * minVal), by half otherwise. The result is not
// clamped here; callers wanting a ceiling go through the curve.
func (d *DelayCalculator) NextDelay(previous, minVal float64) (float64, error) {
	jitter, err := d.curve.PooledSample(0, true)
	if err != nil {
		return 0, err
	}

	delay := jitter
	if previous != 0 {
		delay = previous + 1.0/jitter
	}

	if minVal != 0 && delay <= minVal {
		if delay <= 0.777*minVal {
			delay += minVal
		} else {
			delay += minVal / 2.0
		}
	}

	return delay, nil
}
