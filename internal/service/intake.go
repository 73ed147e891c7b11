package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/filedesk/filedesk/internal/filename"
	"github.com/filedesk/filedesk/internal/form"
	"github.com/filedesk/filedesk/internal/metrics"
	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/repository"
)

// errTooLarge is returned by sizeLimitedReader past its limit.
var errTooLarge = errors.New("upload exceeds size limit")

// IntakeInput is one upload as received from the client.
type IntakeInput struct {
	FileName    string
	Description string
	// Body is nil when the form carried no file.
	Body    io.Reader
	OwnerID string
}

// IntakeService accepts uploads into the blob area and the catalog.
type IntakeService struct {
	catalog    CatalogStore
	customers  CustomerStore
	blobs      BlobStore
	replicator Replicator
	allow      *filename.AllowList
	maxSize    int64
	logger     *slog.Logger
	metrics    metrics.Recorder
	clock      *monotonicClock
}

// NewIntakeService creates a new IntakeService. replicator may be nil when
// remote replication is disabled. A maxSize of 0 disables the size limit.
func NewIntakeService(
	catalog CatalogStore,
	customers CustomerStore,
	blobs BlobStore,
	replicator Replicator,
	allow *filename.AllowList,
	maxSize int64,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *IntakeService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &IntakeService{
		catalog:    catalog,
		customers:  customers,
		blobs:      blobs,
		replicator: replicator,
		allow:      allow,
		maxSize:    maxSize,
		logger:     logger.With("component", "intake"),
		metrics:    recorder,
		clock:      newMonotonicClock(time.Now),
	}
}

// AllowList returns the configured extension allow-list.
func (s *IntakeService) AllowList() *filename.AllowList {
	return s.allow
}

// MaxSize returns the upload size limit in bytes.
func (s *IntakeService) MaxSize() int64 {
	return s.maxSize
}

// Intake validates, stores and catalogs one upload. Validation failures are
// returned as *ValidationError before anything is written.
func (s *IntakeService) Intake(ctx context.Context, in IntakeInput) (*model.Upload, error) {
	start := time.Now()

	res := form.ValidateUpload(form.UploadInput{
		FileName:    in.FileName,
		Description: in.Description,
		HasFile:     in.Body != nil,
	}, s.allow)
	valid, ok := res.Value()
	if !ok {
		reason := s.rejectReason(in)
		s.metrics.IncUploadRejected(reason)
		return nil, &ValidationError{Fields: res.Errors(), Reason: reason}
	}
	if in.OwnerID == "" {
		return nil, ErrUnauthenticated
	}

	id := model.NewID()
	key := model.BlobKey(id, valid.FileName)

	body := in.Body
	if s.maxSize > 0 {
		body = &sizeLimitedReader{r: in.Body, remaining: s.maxSize}
	}

	put, err := s.blobs.Put(ctx, key, body)
	if err != nil {
		// Put leaves no file behind; Delete also drops the empty id directory.
		_ = s.blobs.Delete(key)
		if errors.Is(err, errTooLarge) {
			s.metrics.IncUploadRejected(metrics.RejectTooLarge)
			return nil, newValidationError(metrics.RejectTooLarge, "file",
				fmt.Sprintf("File is too large. The limit is %s.", FormatBytes(s.maxSize)))
		}
		return nil, fmt.Errorf("store blob: %w", err)
	}

	status := model.ReplicationDisabled
	if s.replicator != nil {
		status = model.ReplicationPending
	}

	upload := &model.Upload{
		ID:                id,
		FileName:          valid.FileName,
		Description:       valid.Description,
		OwnerID:           in.OwnerID,
		StorageKey:        key,
		Size:              put.Size,
		Checksum:          put.Checksum,
		ReplicationStatus: status,
		CreatedAt:         s.clock.Now(),
	}

	if err := s.catalog.CreateUpload(ctx, upload); err != nil {
		if delErr := s.blobs.Delete(key); delErr != nil {
			s.logger.Error("orphaned blob after catalog failure",
				"key", key,
				"error", delErr,
			)
		}
		if errors.Is(err, repository.ErrOwnerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("catalog upload: %w", err)
	}

	s.logger.Info("upload stored",
		"upload_id", upload.ID,
		"file_name", upload.FileName,
		"owner_id", upload.OwnerID,
		"size", upload.Size,
	)
	s.metrics.IncUploadAccepted()
	s.metrics.ObserveUploadBytes(upload.Size)
	s.metrics.ObserveIntakeDuration(time.Since(start))

	if s.replicator != nil {
		// Best-effort: the upload stays pending and can be requeued.
		if err := s.replicator.Enqueue(ctx, upload); err != nil {
			s.logger.Warn("replication not enqueued",
				"upload_id", upload.ID,
				"error", err,
			)
		}
	}

	return upload, nil
}

func (s *IntakeService) rejectReason(in IntakeInput) string {
	switch {
	case in.Body == nil || in.FileName == "":
		return metrics.RejectNoFile
	case !s.allow.Allowed(in.FileName):
		return metrics.RejectExtension
	}
	if _, err := filename.Sanitize(in.FileName); err != nil {
		return metrics.RejectName
	}
	return metrics.RejectInvalid
}

// RecentUploads returns up to n uploads, newest first. Negative n is treated as 0.
func (s *IntakeService) RecentUploads(ctx context.Context, n int) ([]*model.Upload, error) {
	if n <= 0 {
		return []*model.Upload{}, nil
	}
	uploads, err := s.catalog.RecentUploads(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("recent uploads: %w", err)
	}
	return uploads, nil
}

// CustomerUploads returns the named customer and up to limit of their
// uploads, newest first.
func (s *IntakeService) CustomerUploads(ctx context.Context, name string, limit int) (*model.Customer, []*model.Upload, error) {
	customer, err := s.customers.GetCustomerByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, nil, ErrCustomerNotFound
		}
		return nil, nil, fmt.Errorf("get customer: %w", err)
	}

	uploads, err := s.catalog.ListUploadsByOwner(ctx, customer.ID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list customer uploads: %w", err)
	}
	return customer, uploads, nil
}

// sizeLimitedReader fails with errTooLarge once more than remaining bytes are read.
type sizeLimitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *sizeLimitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errTooLarge
	}
	// Read one byte past the limit so an exact-size body is accepted.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}

// FormatBytes renders a byte count for messages, e.g. "32 MiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := []string{"KiB", "MiB", "GiB", "TiB"}[exp]
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d %s", int64(value), suffix)
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}
