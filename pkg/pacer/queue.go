package pacer

// timeQueue is an ordered sequence of monotonic timestamps, oldest at the
// front. It belongs to exactly one Limiter and is guarded by the limiter's
// mutex; none of its methods lock.
type timeQueue struct {
	ts []float64
}

func (q *timeQueue) len() int {
	return len(q.ts)
}

// front returns the oldest timestamp. Callers must check len first.
func (q *timeQueue) front() float64 {
	return q.ts[0]
}

// back returns the newest timestamp. Callers must check len first.
func (q *timeQueue) back() float64 {
	return q.ts[len(q.ts)-1]
}

func (q *timeQueue) push(t float64) {
	q.ts = append(q.ts, t)
}

func (q *timeQueue) popFront() float64 {
	t := q.ts[0]
	q.ts = q.ts[1:]
	return t
}

func (q *timeQueue) clear() {
	q.ts = q.ts[:0:0]
}

// span is back - front, the time covered by the queue. Zero for empty or
// singleton queues.
func (q *timeQueue) span() float64 {
	if len(q.ts) < 2 {
		return 0
	}
	return q.back() - q.front()
}
