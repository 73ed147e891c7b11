package model

import (
	"path"
	"time"
)

// ReplicationStatus tracks the remote copy of an upload's bytes.
type ReplicationStatus string

const (
	ReplicationDisabled   ReplicationStatus = "disabled"
	ReplicationPending    ReplicationStatus = "pending"
	ReplicationReplicated ReplicationStatus = "replicated"
	ReplicationFailed     ReplicationStatus = "failed"
)

// IsValid checks if the replication status is known.
func (s ReplicationStatus) IsValid() bool {
	switch s {
	case ReplicationDisabled, ReplicationPending, ReplicationReplicated, ReplicationFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further replication attempts will be made
// without operator action.
func (s ReplicationStatus) IsTerminal() bool {
	return s != ReplicationPending
}

// Upload is one catalog entry. Records are append-only: created once,
// never deleted, and only the replication fields change after creation.
type Upload struct {
	ID                  string            `json:"id"`
	FileName            string            `json:"file_name"`
	Description         string            `json:"description"`
	OwnerID             string            `json:"owner_id"`
	StorageKey          string            `json:"storage_key"`
	Size                int64             `json:"size"`
	Checksum            string            `json:"checksum"`
	ReplicationStatus   ReplicationStatus `json:"replication_status"`
	ReplicationAttempts int               `json:"replication_attempts"`
	ReplicationError    string            `json:"replication_error,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// BlobKey returns the storage key for an upload's bytes.
// The id prefix keeps same-named uploads from overwriting each other.
func BlobKey(uploadID, fileName string) string {
	return path.Join(uploadID, fileName)
}

// Newer reports whether u sorts before other in recency order:
// created_at descending, then id descending.
func (u *Upload) Newer(other *Upload) bool {
	if !u.CreatedAt.Equal(other.CreatedAt) {
		return u.CreatedAt.After(other.CreatedAt)
	}
	return u.ID > other.ID
}
