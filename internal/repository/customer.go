package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/filedesk/filedesk/internal/model"
)

const customerColumns = `id, name, email, credential_hash, created_at`

// CreateCustomer inserts a new customer.
// Returns ErrNameExists or ErrEmailExists when a uniqueness constraint fails.
func (r *Repository) CreateCustomer(ctx context.Context, c *model.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, credential_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		c.Credential,
		c.CreatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case constraintCustomerName:
				return ErrNameExists
			case constraintCustomerEmail:
				return ErrEmailExists
			}
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetCustomerByID retrieves a customer by ID.
func (r *Repository) GetCustomerByID(ctx context.Context, id string) (*model.Customer, error) {
	return r.getCustomer(ctx, "id", id)
}

// GetCustomerByName retrieves a customer by unique name.
func (r *Repository) GetCustomerByName(ctx context.Context, name string) (*model.Customer, error) {
	return r.getCustomer(ctx, "name", name)
}

// GetCustomerByEmail retrieves a customer by unique email.
func (r *Repository) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return r.getCustomer(ctx, "email", email)
}

// getCustomer looks up by one of the fixed key columns above; column is never user input.
func (r *Repository) getCustomer(ctx context.Context, column, value string) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE ` + column + ` = $1`

	var c model.Customer
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Credential,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by %s: %w", column, err)
	}

	return &c, nil
}

// CountCustomers returns the number of registered customers.
func (r *Repository) CountCustomers(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}

// GetOrCreateCustomer returns the customer with c.Name, creating c if absent.
func (r *Repository) GetOrCreateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	existing, err := r.GetCustomerByName(ctx, c.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrCustomerNotFound) {
		return nil, err
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	if err := r.CreateCustomer(ctx, c); err != nil {
		// Handle race condition - another process may have created it
		if errors.Is(err, ErrNameExists) {
			return r.GetCustomerByName(ctx, c.Name)
		}
		return nil, err
	}

	return c, nil
}
