package concurrency

import "time"

func (m *Metrics) record(responseTime time.Duration, err error) {
	m.Lock()
	defer m.Unlock()

	m.ResponseTime.Total += responseTime
	m.ResponseTime.Count++
	if responseTime > m.ResponseTime.Maximum {
		m.ResponseTime.Maximum = responseTime
	}
	if err != nil {
		m.TotalErrors++
	}
}

// Snapshot is a point in time copy of Metrics.
type Snapshot struct {
	TotalRequests       int64
	TotalErrors         int64
	PermitWaitTime      time.Duration
	AverageResponseTime time.Duration
	MaxResponseTime     time.Duration
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() Snapshot {
	m.Lock()
	defer m.Unlock()

	s := Snapshot{
		TotalRequests:   m.TotalRequests,
		TotalErrors:     m.TotalErrors,
		PermitWaitTime:  m.PermitWaitTime,
		MaxResponseTime: m.ResponseTime.Maximum,
	}
	if m.ResponseTime.Count > 0 {
		s.AverageResponseTime = m.ResponseTime.Total / time.Duration(m.ResponseTime.Count)
	}
	return s
}
