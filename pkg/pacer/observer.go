package pacer

// Observer receives limiter and backoff events. Implementations must be
// safe for concurrent use; they are invoked with the limiter's lock held
// and should return quickly.
type Observer interface {
	// OnAcquire is called once per acquisition with the seconds the caller
	// waited for window room (0 when the window had room).
	OnAcquire(namespace, action string, waited float64)

	// OnRelease is called after a release recorded its timestamp, with the
	// resulting queue length, the number of entries trimmed, and whether
	// the idle window was cleared.
	OnRelease(namespace, action string, queueLen, trimmed int, cleared bool)

	// OnSample is called when a backoff curve produces a delay.
	OnSample(attempt int, delay float64)
}

// multiObserver fans events out to several observers in order.
type multiObserver []Observer

// Observers combines observers into one. Nil entries are skipped;
// combining zero observers returns nil.
func Observers(obs ...Observer) Observer {
	var kept multiObserver
	for _, o := range obs {
		if o != nil {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func (m multiObserver) OnAcquire(namespace, action string, waited float64) {
	for _, o := range m {
		o.OnAcquire(namespace, action, waited)
	}
}

func (m multiObserver) OnRelease(namespace, action string, queueLen, trimmed int, cleared bool) {
	for _, o := range m {
		o.OnRelease(namespace, action, queueLen, trimmed, cleared)
	}
}

func (m multiObserver) OnSample(attempt int, delay float64) {
	for _, o := range m {
		o.OnSample(attempt, delay)
	}
}
