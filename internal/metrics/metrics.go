// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Upload rejection reasons.
const (
	RejectExtension = "extension"
	RejectName      = "name"
	RejectTooLarge  = "too_large"
	RejectNoFile    = "no_file"
	RejectInvalid   = "invalid"
)

// Replication outcomes.
const (
	ReplicationSucceeded = "replicated"
	ReplicationRetried   = "retry"
	ReplicationFailed    = "failed"
	ReplicationSkipped   = "skipped"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// Intake metrics
	IncUploadAccepted()
	IncUploadRejected(reason string)
	ObserveUploadBytes(n int64)
	ObserveIntakeDuration(duration time.Duration)

	// Replication pipeline metrics
	IncReplication(outcome string)
	SetReplicationQueueDepth(depth int64)

	// Account metrics
	IncLogin(result string)  // result: "success", "failure", "rate_limited"
	IncSignup(result string) // result: "success", "duplicate", "invalid"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
