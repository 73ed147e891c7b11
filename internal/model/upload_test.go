package model

import (
	"testing"
	"time"
)

func TestReplicationStatus_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status ReplicationStatus
		want   bool
	}{
		{ReplicationDisabled, true},
		{ReplicationPending, true},
		{ReplicationReplicated, true},
		{ReplicationFailed, true},
		{"", false},
		{"queued", false},
	}

	for _, tt := range tests {
		if got := tt.status.IsValid(); got != tt.want {
			t.Errorf("ReplicationStatus(%q).IsValid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestReplicationStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	if ReplicationPending.IsTerminal() {
		t.Error("pending should not be terminal")
	}
	for _, s := range []ReplicationStatus{ReplicationDisabled, ReplicationReplicated, ReplicationFailed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestBlobKey(t *testing.T) {
	t.Parallel()

	if got := BlobKey("01HV", "report.csv"); got != "01HV/report.csv" {
		t.Errorf("BlobKey() = %q", got)
	}
}

func TestUpload_Newer(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := &Upload{ID: "B", CreatedAt: now.Add(-time.Second)}
	newer := &Upload{ID: "A", CreatedAt: now}
	tieHigh := &Upload{ID: "C", CreatedAt: now}

	if !newer.Newer(older) {
		t.Error("later created_at should sort first")
	}
	if older.Newer(newer) {
		t.Error("earlier created_at should not sort first")
	}
	if !tieHigh.Newer(newer) {
		t.Error("equal created_at should fall back to id descending")
	}
	if newer.Newer(newer) {
		t.Error("a record is not newer than itself")
	}
}
