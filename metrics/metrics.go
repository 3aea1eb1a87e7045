package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Recorder tracks limiter and backoff statistics. It implements
// pacer.Observer and is safe for concurrent use.
type Recorder struct {
	acquires   atomic.Int64
	waits      atomic.Int64
	releases   atomic.Int64
	trimmed    atomic.Int64
	idleClears atomic.Int64
	samples    atomic.Int64

	// Per-limiter stats and float totals
	mu           sync.RWMutex
	waitSeconds  float64
	delaySeconds float64
	limiterStats map[string]*LimiterStats
	startTime    time.Time
}

// LimiterStats tracks statistics for one namespace/action pair
type LimiterStats struct {
	Namespace      string    `json:"namespace"`
	Action         string    `json:"action"`
	Acquires       int64     `json:"acquires"`
	Waits          int64     `json:"waits"`
	WaitSeconds    float64   `json:"wait_seconds"`
	Releases       int64     `json:"releases"`
	Trimmed        int64     `json:"trimmed"`
	IdleClears     int64     `json:"idle_clears"`
	QueueLen       int       `json:"queue_len"`
	FirstAcquireAt time.Time `json:"first_acquire_at"`
	LastAcquireAt  time.Time `json:"last_acquire_at"`
}

// NewRecorder creates a new statistics recorder
func NewRecorder() *Recorder {
	return &Recorder{
		limiterStats: make(map[string]*LimiterStats),
		startTime:    time.Now(),
	}
}

// OnAcquire records an acquisition and the seconds it waited for room.
func (r *Recorder) OnAcquire(namespace, action string, waited float64) {
	r.acquires.Add(1)
	if waited > 0 {
		r.waits.Add(1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.waitSeconds += waited

	stats := r.statsLocked(namespace, action)
	stats.Acquires++
	if waited > 0 {
		stats.Waits++
		stats.WaitSeconds += waited
	}
	stats.LastAcquireAt = time.Now()
}

// OnRelease records a release and its window bookkeeping.
func (r *Recorder) OnRelease(namespace, action string, queueLen, trimmed int, cleared bool) {
	r.releases.Add(1)
	r.trimmed.Add(int64(trimmed))
	if cleared {
		r.idleClears.Add(1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.statsLocked(namespace, action)
	stats.Releases++
	stats.Trimmed += int64(trimmed)
	if cleared {
		stats.IdleClears++
	}
	stats.QueueLen = queueLen
}

// OnSample records a backoff delay sample.
func (r *Recorder) OnSample(_ int, delay float64) {
	r.samples.Add(1)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.delaySeconds += delay
}

// statsLocked returns the stats entry for a pair, creating it on first use.
// Caller must hold r.mu.
func (r *Recorder) statsLocked(namespace, action string) *LimiterStats {
	key := namespace + "/" + action
	stats, exists := r.limiterStats[key]
	if !exists {
		stats = &LimiterStats{
			Namespace:      namespace,
			Action:         action,
			FirstAcquireAt: time.Now(),
		}
		r.limiterStats[key] = stats
	}
	return stats
}

// GetSnapshot returns a snapshot of current metrics
func (r *Recorder) GetSnapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiters := make([]*LimiterStats, 0, len(r.limiterStats))
	for _, stats := range r.limiterStats {
		copied := *stats
		limiters = append(limiters, &copied)
	}

	sortByAcquires(limiters)

	uptime := time.Since(r.startTime)

	return &Snapshot{
		Acquires:         r.acquires.Load(),
		Waits:            r.waits.Load(),
		WaitSeconds:      r.waitSeconds,
		Releases:         r.releases.Load(),
		Trimmed:          r.trimmed.Load(),
		IdleClears:       r.idleClears.Load(),
		BackoffSamples:   r.samples.Load(),
		BackoffDelaySecs: r.delaySeconds,
		Limiters:         limiters,
		UptimeSeconds:    int64(uptime.Seconds()),
		StartTime:        r.startTime,
	}
}

// Snapshot represents a point-in-time view of metrics
type Snapshot struct {
	Acquires         int64           `json:"acquires"`
	Waits            int64           `json:"waits"`
	WaitSeconds      float64         `json:"wait_seconds"`
	Releases         int64           `json:"releases"`
	Trimmed          int64           `json:"trimmed"`
	IdleClears       int64           `json:"idle_clears"`
	BackoffSamples   int64           `json:"backoff_samples"`
	BackoffDelaySecs float64         `json:"backoff_delay_seconds"`
	Limiters         []*LimiterStats `json:"limiters"`
	UptimeSeconds    int64           `json:"uptime_seconds"`
	StartTime        time.Time       `json:"start_time"`
}

// Helper to sort limiter stats by acquisition count
func sortByAcquires(limiters []*LimiterStats) {
	for i := 0; i < len(limiters)-1; i++ {
		for j := i + 1; j < len(limiters); j++ {
			if limiters[j].Acquires > limiters[i].Acquires {
				limiters[i], limiters[j] = limiters[j], limiters[i]
			}
		}
	}
}
