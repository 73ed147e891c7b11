package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UploadsAccepted       uint64
	UploadsRejected       map[string]uint64
	UploadBytesTotal      int64
	IntakeDurationCount   uint64
	Replications          map[string]uint64
	ReplicationQueueDepth int64
	Logins                map[string]uint64
	Signups               map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	uploadsAccepted     uint64
	uploadBytesTotal    int64
	intakeDurationCount uint64
	queueDepth          int64

	mu           sync.Mutex
	rejected     map[string]uint64
	replications map[string]uint64
	logins       map[string]uint64
	signups      map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		rejected:     make(map[string]uint64),
		replications: make(map[string]uint64),
		logins:       make(map[string]uint64),
		signups:      make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		UploadsAccepted:       atomic.LoadUint64(&m.uploadsAccepted),
		UploadsRejected:       copyCounts(m.rejected),
		UploadBytesTotal:      atomic.LoadInt64(&m.uploadBytesTotal),
		IntakeDurationCount:   atomic.LoadUint64(&m.intakeDurationCount),
		Replications:          copyCounts(m.replications),
		ReplicationQueueDepth: atomic.LoadInt64(&m.queueDepth),
		Logins:                copyCounts(m.logins),
		Signups:               copyCounts(m.signups),
	}
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

// IncUploadAccepted increments the accepted upload counter.
func (m *InMemoryRecorder) IncUploadAccepted() {
	atomic.AddUint64(&m.uploadsAccepted, 1)
}

// IncUploadRejected increments the rejected counter for reason.
func (m *InMemoryRecorder) IncUploadRejected(reason string) {
	m.inc(m.rejected, reason)
}

// ObserveUploadBytes adds n to the stored byte total.
func (m *InMemoryRecorder) ObserveUploadBytes(n int64) {
	atomic.AddInt64(&m.uploadBytesTotal, n)
}

// ObserveIntakeDuration counts intake observations.
func (m *InMemoryRecorder) ObserveIntakeDuration(time.Duration) {
	atomic.AddUint64(&m.intakeDurationCount, 1)
}

// IncReplication increments the counter for outcome.
func (m *InMemoryRecorder) IncReplication(outcome string) {
	m.inc(m.replications, outcome)
}

// SetReplicationQueueDepth records the current queue depth.
func (m *InMemoryRecorder) SetReplicationQueueDepth(depth int64) {
	atomic.StoreInt64(&m.queueDepth, depth)
}

// IncLogin increments the login counter for result.
func (m *InMemoryRecorder) IncLogin(result string) {
	m.inc(m.logins, result)
}

// IncSignup increments the signup counter for result.
func (m *InMemoryRecorder) IncSignup(result string) {
	m.inc(m.signups, result)
}
