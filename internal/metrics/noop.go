package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncUploadAccepted() {}
func (n *NoopRecorder) IncUploadRejected(string) {}
func (n *NoopRecorder) ObserveUploadBytes(int64) {}
func (n *NoopRecorder) ObserveIntakeDuration(time.Duration) {}
func (n *NoopRecorder) IncReplication(string) {}
func (n *NoopRecorder) SetReplicationQueueDepth(int64) {}
func (n *NoopRecorder) IncLogin(string) {}
func (n *NoopRecorder) IncSignup(string) {}
