package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/repository"
	"github.com/filedesk/filedesk/internal/storage"
)

// CustomerStore persists customers.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *model.Customer) error
	GetCustomerByID(ctx context.Context, id string) (*model.Customer, error)
	GetCustomerByName(ctx context.Context, name string) (*model.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	CountCustomers(ctx context.Context) (int, error)
	GetOrCreateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error)
}

// CatalogStore is the append-only upload catalog.
type CatalogStore interface {
	CreateUpload(ctx context.Context, u *model.Upload) error
	GetUpload(ctx context.Context, id string) (*model.Upload, error)
	RecentUploads(ctx context.Context, n int) ([]*model.Upload, error)
	ListUploadsByOwner(ctx context.Context, ownerID string, limit int) ([]*model.Upload, error)
}

// BlobStore holds uploaded bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (*storage.PutResult, error)
	Delete(key string) error
}

// Replicator schedules background copies of a stored upload.
type Replicator interface {
	Enqueue(ctx context.Context, u *model.Upload) error
}

var (
	_ CustomerStore = (*repository.Repository)(nil)
	_ CustomerStore = (*repository.Memory)(nil)
	_ CatalogStore  = (*repository.Repository)(nil)
	_ CatalogStore  = (*repository.Memory)(nil)
	_ BlobStore     = (*storage.LocalStore)(nil)
)

// monotonicClock never returns a time before one it already returned.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	return &monotonicClock{now: now}
}

// Now returns the current UTC time at catalog precision.
func (c *monotonicClock) Now() time.Time {
	t := c.now().UTC().Truncate(time.Microsecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
