package metrics

import "sync/atomic"

// ID identifies one counter slot.
type ID int

const (
	LoginSuccess ID = iota
	LoginFailure
	LoginLocked
	AccountLocked
	RegisterSuccess
	RegisterConflict
	OTPIssued
	OTPVerified
	OTPFailure
	RateLimitDenied
	MailFailed

	// IDCount is the number of counter slots.
	IDCount
)

// paddedCounter occupies a full cache line to avoid false sharing between
// adjacent hot counters.
type paddedCounter struct {
	value atomic.Uint64
	_     [56]byte
}

// Metrics holds the counter slots. A disabled Metrics makes every operation
// a no-op; a nil *Metrics is also valid.
type Metrics struct {
	enabled  bool
	counters [IDCount]paddedCounter
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters [IDCount]uint64
}

// Get returns the snapshot value for id, or 0 for an out-of-range id.
func (s Snapshot) Get(id ID) uint64 {
	if id < 0 || id >= IDCount {
		return 0
	}
	return s.Counters[id]
}

func New(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

func (m *Metrics) Inc(id ID) {
	if m == nil || !m.enabled || id < 0 || id >= IDCount {
		return
	}
	m.counters[id].value.Add(1)
}

func (m *Metrics) Snapshot() Snapshot {
	var snap Snapshot
	if m == nil || !m.enabled {
		return snap
	}
	for i := range m.counters {
		snap.Counters[i] = m.counters[i].value.Load()
	}
	return snap
}
