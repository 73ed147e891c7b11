// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/filedesk/filedesk/internal/auth"
)

// Customer is an account that owns uploads.
// Customers are created at signup and never mutated afterwards.
type Customer struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Credential auth.Credential `json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Identity returns the session identity for the customer.
func (c *Customer) Identity() auth.Identity {
	return auth.Identity{CustomerID: c.ID, Name: c.Name}
}
