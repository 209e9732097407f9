package sessiongate

import "sync/atomic"

// MetricID identifies a single gateway counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts credential logins that produced a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected credential logins.
	MetricLoginFailure
	// MetricLogout counts completed logouts.
	MetricLogout
	// MetricAutologinSuccess counts cookie-based re-authentications.
	MetricAutologinSuccess
	// MetricAutologinFailure counts autologin attempts rejected for any reason.
	MetricAutologinFailure
	// MetricTokenRedeemed counts successful random-token redemptions.
	MetricTokenRedeemed
	// MetricTokenRejected counts redemptions of unknown or spent tokens.
	MetricTokenRejected
	// MetricGateSuccess counts requests admitted by the authentication gate.
	MetricGateSuccess
	// MetricGateReject counts requests the gate turned away.
	MetricGateReject
	// MetricSessionCreated counts sessions added to the registry.
	MetricSessionCreated
	// MetricSessionRemoved counts sessions removed from the registry.
	MetricSessionRemoved
	// MetricIPMismatch counts rejections caused by the address check.
	MetricIPMismatch
	// MetricSecretMismatch counts rejections caused by a wrong secret cookie.
	MetricSecretMismatch
	metricIDCount
)

const cacheLineSize = 64

// paddedCounter keeps each counter on its own cache line so hot counters on
// different cores do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters. A nil or disabled Metrics
// accepts Inc calls and records nothing.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a counter set, active only when cfg enables it.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether the counter set records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments one counter. Safe on a nil receiver.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the current value of one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Counters are read individually, so a
// snapshot taken under load is consistent per counter, not across counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil || !m.enabled {
		return s
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
