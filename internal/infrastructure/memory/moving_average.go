package memory

import "time"

// movingAverage is a simple moving average over a fixed window of durations.
type movingAverage struct {
	samples []time.Duration
	next    int
	full    bool
	sum     time.Duration
}

func newMovingAverage(window int) *movingAverage {
	return &movingAverage{samples: make([]time.Duration, window)}
}

func (m *movingAverage) add(d time.Duration) {
	m.sum += d - m.samples[m.next]
	m.samples[m.next] = d
	m.next++
	if m.next == len(m.samples) {
		m.next = 0
		m.full = true
	}
}

func (m *movingAverage) len() int {
	if m.full {
		return len(m.samples)
	}
	return m.next
}

func (m *movingAverage) average() time.Duration {
	n := m.len()
	if n == 0 {
		return 0
	}
	return m.sum / time.Duration(n)
}

func (m *movingAverage) reset() {
	clear(m.samples)
	m.next = 0
	m.full = false
	m.sum = 0
}
