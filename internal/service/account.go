package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/filedesk/filedesk/internal/auth"
	"github.com/filedesk/filedesk/internal/form"
	"github.com/filedesk/filedesk/internal/metrics"
	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/repository"
)

// AccountService handles customer signup and login.
type AccountService struct {
	customers CustomerStore
	params    auth.Params
	logger    *slog.Logger
	metrics   metrics.Recorder

	dummyOnce sync.Once
	dummy     auth.Credential
}

// NewAccountService creates a new AccountService hashing with auth.DefaultParams.
func NewAccountService(customers CustomerStore, logger *slog.Logger, recorder metrics.Recorder) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		customers: customers,
		params:    auth.DefaultParams,
		logger:    logger.With("component", "accounts"),
		metrics:   recorder,
	}
}

// SetHashParams overrides the credential cost parameters. Intended for tests.
func (s *AccountService) SetHashParams(p auth.Params) {
	s.params = p
}

// Signup validates the form and creates a customer. Duplicate names and
// emails are reported as *ValidationError and leave the store unchanged.
func (s *AccountService) Signup(ctx context.Context, in form.SignupInput) (*model.Customer, error) {
	res := form.ValidateSignup(in)
	valid, ok := res.Value()
	if !ok {
		s.metrics.IncSignup("invalid")
		return nil, &ValidationError{Fields: res.Errors(), Reason: "invalid"}
	}

	cred, err := auth.NewCredentialWithParams(valid.Password, s.params)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	customer := &model.Customer{
		ID:         model.NewID(),
		Name:       valid.Name,
		Email:      valid.Email,
		Credential: cred,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		switch {
		case errors.Is(err, repository.ErrNameExists):
			s.metrics.IncSignup("duplicate")
			return nil, newValidationError("duplicate", "name", "That username is already taken.")
		case errors.Is(err, repository.ErrEmailExists):
			s.metrics.IncSignup("duplicate")
			return nil, newValidationError("duplicate", "email", "That email address is already registered.")
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.logger.Info("customer signed up", "customer_id", customer.ID, "name", customer.Name)
	s.metrics.IncSignup("success")
	return customer, nil
}

// Authenticate returns the customer whose name and password match.
// Unknown names and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, in form.LoginInput) (*model.Customer, error) {
	res := form.ValidateLogin(in)
	valid, ok := res.Value()
	if !ok {
		return nil, &ValidationError{Fields: res.Errors(), Reason: "invalid"}
	}

	customer, err := s.customers.GetCustomerByName(ctx, valid.Name)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			// Spend the same hashing time as a real check.
			s.dummyCredential().Matches(valid.Password)
			s.metrics.IncLogin("failure")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	if !customer.Credential.Matches(valid.Password) {
		s.logger.Info("login failed", "customer_id", customer.ID)
		s.metrics.IncLogin("failure")
		return nil, ErrInvalidCredentials
	}

	s.metrics.IncLogin("success")
	return customer, nil
}

// RecordRateLimited counts a login attempt turned away by rate limiting.
func (s *AccountService) RecordRateLimited() {
	s.metrics.IncLogin("rate_limited")
}

// CustomerByName looks up a customer by name.
func (s *AccountService) CustomerByName(ctx context.Context, name string) (*model.Customer, error) {
	customer, err := s.customers.GetCustomerByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

// CustomerByID looks up a customer by id.
func (s *AccountService) CustomerByID(ctx context.Context, id string) (*model.Customer, error) {
	customer, err := s.customers.GetCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

// EnsurePlaceholderOwner returns the customer that owns uploads when login is
// disabled, creating it on first use. Its password is random and discarded,
// so nobody can log in as it.
func (s *AccountService) EnsurePlaceholderOwner(ctx context.Context, name string) (*model.Customer, error) {
	secret, err := auth.GenerateToken()
	if err != nil {
		return nil, err
	}
	cred, err := auth.NewCredentialWithParams(secret, s.params)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder credential: %w", err)
	}

	customer, err := s.customers.GetOrCreateCustomer(ctx, &model.Customer{
		ID:         model.NewID(),
		Name:       name,
		Email:      name + "@placeholder.invalid",
		Credential: cred,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure placeholder owner %q: %w", name, err)
	}
	return customer, nil
}

func (s *AccountService) dummyCredential() auth.Credential {
	s.dummyOnce.Do(func() {
		s.dummy, _ = auth.NewCredentialWithParams("filedesk-dummy-secret", s.params)
	})
	return s.dummy
}
