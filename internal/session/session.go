// Package session manages login sessions and flash messages carried in cookies.
//
// The session cookie holds a random token signed with the application secret.
// Only a hash of the token is used as the store key, so a leaked store does not
// yield usable cookies.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/filedesk/filedesk/internal/auth"
	"github.com/filedesk/filedesk/internal/cache"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "filedesk_session"
	// FlashCookieName is the name of the flash message cookie.
	FlashCookieName = "filedesk_flash"

	flashMaxAge = 5 * 60
)

// Flash categories.
const (
	FlashInfo  = "info"
	FlashError = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Manager issues, resolves and revokes sessions.
type Manager struct {
	store  Store
	signer *auth.Signer
	ttl    time.Duration
	secure bool
}

// NewManager creates a Manager. Cookies get the Secure flag when secure is true.
func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:  store,
		signer: auth.NewSigner(secret),
		ttl:    ttl,
		secure: secure,
	}
}

// Start creates a session for id and sets the session cookie.
// Any session already presented by r is revoked first.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, id auth.Identity) error {
	if token, ok := m.token(r); ok {
		_ = m.store.DeleteSession(ctx, auth.QuickHash(token))
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	if err := m.store.SaveSession(ctx, auth.QuickHash(token), id, m.ttl); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.signer.Sign(token),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load resolves the identity of the session presented by r.
// Returns nil, nil when there is no valid session.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*auth.Identity, error) {
	token, ok := m.token(r)
	if !ok {
		return nil, nil
	}

	id, err := m.store.LoadSession(ctx, auth.QuickHash(token))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return id, nil
}

// End revokes the session presented by r and clears the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.clear(w, CookieName)

	token, ok := m.token(r)
	if !ok {
		return nil
	}
	if err := m.store.DeleteSession(ctx, auth.QuickHash(token)); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// token returns the verified token from the session cookie.
func (m *Manager) token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	token, err := m.signer.Verify(cookie.Value)
	if err != nil {
		return "", false
	}
	return token, true
}

// AddFlash queues a message for the next page, keeping messages already
// queued by r.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	flashes := append(m.readFlashes(r), Flash{Category: category, Message: message})

	data, err := json.Marshal(flashes)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    m.signer.Sign(base64.RawURLEncoding.EncodeToString(data)),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns the queued messages and clears them.
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	if _, err := r.Cookie(FlashCookieName); err != nil {
		return nil
	}
	m.clear(w, FlashCookieName)
	return m.readFlashes(r)
}

func (m *Manager) readFlashes(r *http.Request) []Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil {
		return nil
	}
	payload, err := m.signer.Verify(cookie.Value)
	if err != nil {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}

	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

func (m *Manager) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
