package service

import (
	"context"
	"errors"
	"testing"

	"github.com/filedesk/filedesk/internal/form"
	"github.com/filedesk/filedesk/internal/metrics"
	"github.com/filedesk/filedesk/internal/repository"
	"github.com/filedesk/filedesk/internal/testutil"
)

func newAccountService(t *testing.T) (*AccountService, *repository.Memory, *metrics.InMemoryRecorder) {
	t.Helper()
	store := repository.NewMemory()
	recorder := metrics.NewInMemory()
	svc := NewAccountService(store, discardLogger(), recorder)
	svc.SetHashParams(testutil.CheapParams)
	return svc, store, recorder
}

func signupInput(name, email string) form.SignupInput {
	return form.SignupInput{Name: name, Email: email, Password: "correct horse", Confirm: "correct horse"}
}

func TestSignup_CreatesCustomer(t *testing.T) {
	t.Parallel()
	svc, store, recorder := newAccountService(t)
	ctx := context.Background()

	customer, err := svc.Signup(ctx, signupInput("alice", "Alice@Example.com"))
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if customer.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lower-cased", customer.Email)
	}
	if customer.Credential.IsZero() {
		t.Error("expected a credential hash")
	}
	if !customer.Credential.Matches("correct horse") {
		t.Error("credential does not match the signup password")
	}

	n, _ := store.CountCustomers(ctx)
	if n != 1 {
		t.Errorf("CountCustomers = %d, want 1", n)
	}
	if got := recorder.Snapshot().Signups["success"]; got != 1 {
		t.Errorf("signups[success] = %d, want 1", got)
	}
}

func TestSignup_DuplicatesLeaveCountUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     form.SignupInput
		wantField string
	}{
		{name: "duplicate email", input: signupInput("bob", "alice@example.com"), wantField: "email"},
		{name: "duplicate email other case", input: signupInput("bob", "ALICE@example.com"), wantField: "email"},
		{name: "duplicate name", input: signupInput("alice", "other@example.com"), wantField: "name"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, store, recorder := newAccountService(t)
			ctx := context.Background()

			if _, err := svc.Signup(ctx, signupInput("alice", "alice@example.com")); err != nil {
				t.Fatalf("first Signup: %v", err)
			}
			before, _ := store.CountCustomers(ctx)

			_, err := svc.Signup(ctx, tt.input)
			ve, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !ve.Fields.Has(tt.wantField) {
				t.Errorf("expected error on %q, got %v", tt.wantField, ve.Fields)
			}

			after, _ := store.CountCustomers(ctx)
			if after != before {
				t.Errorf("customer count changed from %d to %d", before, after)
			}
			if got := recorder.Snapshot().Signups["duplicate"]; got != 1 {
				t.Errorf("signups[duplicate] = %d, want 1", got)
			}
		})
	}
}

func TestSignup_InvalidInput(t *testing.T) {
	t.Parallel()
	svc, store, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, form.SignupInput{Name: "", Email: "not-an-email", Password: "short", Confirm: "short"})
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "email", "password"} {
		if !ve.Fields.Has(field) {
			t.Errorf("expected error on %q", field)
		}
	}
	if n, _ := store.CountCustomers(ctx); n != 0 {
		t.Errorf("CountCustomers = %d, want 0", n)
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	svc, _, recorder := newAccountService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, signupInput("carol", "carol@example.com"))
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	tests := []struct {
		name     string
		input    form.LoginInput
		wantErr  error
		wantForm bool
	}{
		{name: "correct", input: form.LoginInput{Name: "carol", Password: "correct horse"}},
		{name: "wrong password", input: form.LoginInput{Name: "carol", Password: "wrong horse"}, wantErr: ErrInvalidCredentials},
		{name: "unknown user", input: form.LoginInput{Name: "mallory", Password: "correct horse"}, wantErr: ErrInvalidCredentials},
		{name: "empty", input: form.LoginInput{}, wantForm: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customer, err := svc.Authenticate(ctx, tt.input)
			switch {
			case tt.wantForm:
				if _, ok := AsValidationError(err); !ok {
					t.Fatalf("expected ValidationError, got %v", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if customer != nil {
					t.Error("no customer should be returned on failure")
				}
			default:
				if err != nil {
					t.Fatalf("Authenticate: %v", err)
				}
				if customer.ID != created.ID {
					t.Errorf("customer = %s, want %s", customer.ID, created.ID)
				}
			}
		})
	}

	snap := recorder.Snapshot()
	if snap.Logins["success"] != 1 || snap.Logins["failure"] != 2 {
		t.Errorf("logins = %v, want 1 success and 2 failures", snap.Logins)
	}
}

func TestCustomerByName(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, signupInput("dave", "dave@example.com")); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if c, err := svc.CustomerByName(ctx, "dave"); err != nil || c.Name != "dave" {
		t.Errorf("CustomerByName(dave) = %v, %v", c, err)
	}
	if _, err := svc.CustomerByName(ctx, "erin"); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestEnsurePlaceholderOwner_Idempotent(t *testing.T) {
	t.Parallel()
	svc, store, _ := newAccountService(t)
	ctx := context.Background()

	first, err := svc.EnsurePlaceholderOwner(ctx, "test_client")
	if err != nil {
		t.Fatalf("EnsurePlaceholderOwner: %v", err)
	}
	second, err := svc.EnsurePlaceholderOwner(ctx, "test_client")
	if err != nil {
		t.Fatalf("EnsurePlaceholderOwner: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("placeholder recreated: %s then %s", first.ID, second.ID)
	}
	if n, _ := store.CountCustomers(ctx); n != 1 {
		t.Errorf("CountCustomers = %d, want 1", n)
	}
	if _, err := svc.Authenticate(ctx, form.LoginInput{Name: "test_client", Password: "password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("placeholder should not be able to log in, got %v", err)
	}
}
