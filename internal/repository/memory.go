package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/filedesk/filedesk/internal/model"
)

// Memory is an in-process store with the same semantics as Repository.
// Used by unit tests and CATALOG_BACKEND=memory.
type Memory struct {
	mu        sync.RWMutex
	customers map[string]*model.Customer // by id
	byName    map[string]string
	byEmail   map[string]string
	uploads   map[string]*model.Upload
	keys      map[string]struct{}
	order     []*model.Upload // created_at DESC, id DESC
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		customers: make(map[string]*model.Customer),
		byName:    make(map[string]string),
		byEmail:   make(map[string]string),
		uploads:   make(map[string]*model.Upload),
		keys:      make(map[string]struct{}),
	}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

// CreateCustomer inserts a new customer.
func (m *Memory) CreateCustomer(_ context.Context, c *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[c.Name]; ok {
		return ErrNameExists
	}
	if _, ok := m.byEmail[c.Email]; ok {
		return ErrEmailExists
	}

	stored := *c
	m.customers[c.ID] = &stored
	m.byName[c.Name] = c.ID
	m.byEmail[c.Email] = c.ID
	return nil
}

// GetCustomerByID retrieves a customer by ID.
func (m *Memory) GetCustomerByID(_ context.Context, id string) (*model.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customerLocked(id)
}

// GetCustomerByName retrieves a customer by unique name.
func (m *Memory) GetCustomerByName(_ context.Context, name string) (*model.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customerLocked(m.byName[name])
}

// GetCustomerByEmail retrieves a customer by unique email.
func (m *Memory) GetCustomerByEmail(_ context.Context, email string) (*model.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customerLocked(m.byEmail[email])
}

func (m *Memory) customerLocked(id string) (*model.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	out := *c
	return &out, nil
}

// CountCustomers returns the number of registered customers.
func (m *Memory) CountCustomers(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.customers), nil
}

// GetOrCreateCustomer returns the customer with c.Name, creating c if absent.
func (m *Memory) GetOrCreateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	if existing, err := m.GetCustomerByName(ctx, c.Name); err == nil {
		return existing, nil
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	if err := m.CreateCustomer(ctx, c); err != nil {
		if errors.Is(err, ErrNameExists) {
			return m.GetCustomerByName(ctx, c.Name)
		}
		return nil, err
	}
	return c, nil
}

// CreateUpload appends a new catalog record.
func (m *Memory) CreateUpload(_ context.Context, u *model.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.customers[u.OwnerID]; !ok {
		return ErrOwnerNotFound
	}
	if _, ok := m.uploads[u.ID]; ok {
		return ErrUploadExists
	}
	if _, ok := m.keys[u.StorageKey]; ok {
		return ErrUploadExists
	}

	stored := *u
	m.uploads[u.ID] = &stored
	m.keys[u.StorageKey] = struct{}{}

	i := sort.Search(len(m.order), func(i int) bool {
		return stored.Newer(m.order[i])
	})
	m.order = append(m.order, nil)
	copy(m.order[i+1:], m.order[i:])
	m.order[i] = &stored

	return nil
}

// GetUpload retrieves an upload by ID.
func (m *Memory) GetUpload(_ context.Context, id string) (*model.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.uploads[id]
	if !ok {
		return nil, ErrUploadNotFound
	}
	out := *u
	return &out, nil
}

// RecentUploads returns up to n uploads, newest first.
func (m *Memory) RecentUploads(_ context.Context, n int) ([]*model.Upload, error) {
	return m.collect(n, func(*model.Upload) bool { return true }, false), nil
}

// ListUploadsByOwner returns up to limit uploads owned by ownerID, newest first.
func (m *Memory) ListUploadsByOwner(_ context.Context, ownerID string, limit int) ([]*model.Upload, error) {
	return m.collect(limit, func(u *model.Upload) bool { return u.OwnerID == ownerID }, false), nil
}

// ListUploadsByReplicationStatus returns up to limit uploads in status, oldest first.
func (m *Memory) ListUploadsByReplicationStatus(_ context.Context, status model.ReplicationStatus, limit int) ([]*model.Upload, error) {
	return m.collect(limit, func(u *model.Upload) bool { return u.ReplicationStatus == status }, true), nil
}

// UpdateReplicationStatus records the outcome of a replication attempt.
func (m *Memory) UpdateReplicationStatus(_ context.Context, id string, status model.ReplicationStatus, attempts int, lastErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.uploads[id]
	if !ok {
		return ErrUploadNotFound
	}
	u.ReplicationStatus = status
	u.ReplicationAttempts = attempts
	u.ReplicationError = lastErr
	return nil
}

func (m *Memory) collect(limit int, keep func(*model.Upload) bool, oldestFirst bool) []*model.Upload {
	out := make([]*model.Upload, 0)
	if limit <= 0 {
		return out
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.order)
	for i := 0; i < n && len(out) < limit; i++ {
		idx := i
		if oldestFirst {
			idx = n - 1 - i
		}
		if u := m.order[idx]; keep(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out
}
