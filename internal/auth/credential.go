package auth

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
)

const redacted = "[REDACTED]"

// ErrEmptySecret is returned when hashing an empty secret.
var ErrEmptySecret = errors.New("secret must not be empty")

// Credential is a salted one-way hash of a customer secret.
// The encoded hash has no public accessor; it leaves the process only
// through the database driver.
type Credential struct {
	encoded string
}

// NewCredential hashes secret with DefaultParams.
func NewCredential(secret string) (Credential, error) {
	return NewCredentialWithParams(secret, DefaultParams)
}

// NewCredentialWithParams hashes secret with explicit cost parameters.
func NewCredentialWithParams(secret string, p Params) (Credential, error) {
	if secret == "" {
		return Credential{}, ErrEmptySecret
	}
	encoded, err := hashSecret(secret, p)
	if err != nil {
		return Credential{}, err
	}
	return Credential{encoded: encoded}, nil
}

// IsZero reports whether the credential holds no hash.
func (c Credential) IsZero() bool {
	return c.encoded == ""
}

// Matches reports whether secret hashes to the stored credential.
// A zero or malformed credential never matches.
func (c Credential) Matches(secret string) bool {
	if c.encoded == "" {
		return false
	}
	ok, err := verifySecret(secret, c.encoded)
	return err == nil && ok
}

// NeedsRehash reports whether the credential was produced with parameters
// other than p.
func (c Credential) NeedsRehash(p Params) bool {
	d, err := decodeHash(c.encoded)
	if err != nil {
		return true
	}
	return d.params.Time != p.Time || d.params.Memory != p.Memory ||
		d.params.Threads != p.Threads || d.params.KeyLen != p.KeyLen
}

// Scan implements sql.Scanner.
func (c *Credential) Scan(src any) error {
	switch v := src.(type) {
	case string:
		c.encoded = v
	case []byte:
		c.encoded = string(v)
	case nil:
		c.encoded = ""
	default:
		return fmt.Errorf("scan credential: unsupported type %T", src)
	}
	if c.encoded != "" {
		if _, err := decodeHash(c.encoded); err != nil {
			c.encoded = ""
			return fmt.Errorf("scan credential: %w", err)
		}
	}
	return nil
}

// Value implements driver.Valuer.
func (c Credential) Value() (driver.Value, error) {
	if c.encoded == "" {
		return nil, ErrEmptySecret
	}
	return c.encoded, nil
}

func (c Credential) String() string {
	return redacted
}

func (c Credential) GoString() string {
	return "auth.Credential{" + redacted + "}"
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (c Credential) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
