package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/filedesk/filedesk/internal/model"
)

const uploadColumns = `id, file_name, description, owner_id, storage_key, size, checksum,
	replication_status, replication_attempts, replication_error, created_at`

// CreateUpload appends a new catalog record.
// Returns ErrOwnerNotFound if the owner does not exist.
func (r *Repository) CreateUpload(ctx context.Context, u *model.Upload) error {
	query := `
		INSERT INTO uploads (` + uploadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.FileName,
		u.Description,
		u.OwnerID,
		u.StorageKey,
		u.Size,
		u.Checksum,
		string(u.ReplicationStatus),
		u.ReplicationAttempts,
		u.ReplicationError,
		u.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err, constraintUploadOwner) {
			return ErrOwnerNotFound
		}
		if _, ok := uniqueViolation(err); ok {
			return ErrUploadExists
		}
		return fmt.Errorf("failed to create upload: %w", err)
	}

	return nil
}

// GetUpload retrieves an upload by ID.
func (r *Repository) GetUpload(ctx context.Context, id string) (*model.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE id = $1`

	u, err := scanUpload(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}

	return u, nil
}

// RecentUploads returns up to n uploads, newest first.
// Ties on created_at are broken by id descending.
func (r *Repository) RecentUploads(ctx context.Context, n int) ([]*model.Upload, error) {
	if n <= 0 {
		return []*model.Upload{}, nil
	}

	query := `
		SELECT ` + uploadColumns + `
		FROM uploads
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent uploads: %w", err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

// ListUploadsByOwner returns up to limit uploads owned by ownerID, newest first.
func (r *Repository) ListUploadsByOwner(ctx context.Context, ownerID string, limit int) ([]*model.Upload, error) {
	if limit <= 0 {
		return []*model.Upload{}, nil
	}

	query := `
		SELECT ` + uploadColumns + `
		FROM uploads
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads by owner: %w", err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

// ListUploadsByReplicationStatus returns up to limit uploads in status, oldest first.
func (r *Repository) ListUploadsByReplicationStatus(ctx context.Context, status model.ReplicationStatus, limit int) ([]*model.Upload, error) {
	if limit <= 0 {
		return []*model.Upload{}, nil
	}

	query := `
		SELECT ` + uploadColumns + `
		FROM uploads
		WHERE replication_status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads by replication status: %w", err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

// UpdateReplicationStatus records the outcome of a replication attempt.
// These are the only mutable columns of an upload.
func (r *Repository) UpdateReplicationStatus(ctx context.Context, id string, status model.ReplicationStatus, attempts int, lastErr string) error {
	query := `
		UPDATE uploads
		SET replication_status = $2, replication_attempts = $3, replication_error = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, string(status), attempts, lastErr)
	if err != nil {
		return fmt.Errorf("failed to update replication status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUploadNotFound
	}

	return nil
}

func scanUpload(row pgx.Row) (*model.Upload, error) {
	var u model.Upload
	var status string
	err := row.Scan(
		&u.ID,
		&u.FileName,
		&u.Description,
		&u.OwnerID,
		&u.StorageKey,
		&u.Size,
		&u.Checksum,
		&status,
		&u.ReplicationAttempts,
		&u.ReplicationError,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ReplicationStatus = model.ReplicationStatus(status)
	return &u, nil
}

func scanUploads(rows pgx.Rows) ([]*model.Upload, error) {
	uploads := make([]*model.Upload, 0)
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate uploads: %w", err)
	}
	return uploads, nil
}
