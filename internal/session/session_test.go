package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/filedesk/filedesk/internal/auth"
)

// requestWithCookies builds a request carrying the cookies set on rec.
func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		r.AddCookie(c)
	}
	return r
}

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store, "test-secret", time.Hour, false), store
}

func TestManager_StartLoadEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, store := newTestManager()

	id := auth.Identity{CustomerID: "01HZ", Name: "alice"}
	rec := httptest.NewRecorder()
	if err := m.Start(ctx, rec, httptest.NewRequest(http.MethodPost, "/login", nil), id); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("expected one session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode {
		t.Error("session cookie must be HttpOnly and SameSite=Lax")
	}

	r := requestWithCookies(rec)
	got, err := m.Load(ctx, r)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || *got != id {
		t.Fatalf("Load = %v, want %+v", got, id)
	}

	out := httptest.NewRecorder()
	if err := m.End(ctx, out, r); err != nil {
		t.Fatalf("End: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected session to be deleted, %d remain", store.Len())
	}
	got, err = m.Load(ctx, r)
	if err != nil || got != nil {
		t.Errorf("Load after End = %v, %v; want nil, nil", got, err)
	}
}

func TestManager_StartRotatesExistingSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, store := newTestManager()

	first := httptest.NewRecorder()
	if err := m.Start(ctx, first, httptest.NewRequest(http.MethodPost, "/login", nil), auth.Identity{CustomerID: "a", Name: "a"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second := httptest.NewRecorder()
	if err := m.Start(ctx, second, requestWithCookies(first), auth.Identity{CustomerID: "b", Name: "b"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if store.Len() != 1 {
		t.Errorf("expected the old session to be revoked, store has %d", store.Len())
	}
	if got, _ := m.Load(ctx, requestWithCookies(first)); got != nil {
		t.Error("old cookie still resolves")
	}
}

func TestManager_Load(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newTestManager()

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "unsigned", cookie: &http.Cookie{Name: CookieName, Value: "token"}},
		{name: "bad signature", cookie: &http.Cookie{Name: CookieName, Value: "token.c2ln"}},
		{name: "unknown token", cookie: &http.Cookie{Name: CookieName, Value: auth.NewSigner("test-secret").Sign("never-issued")}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			got, err := m.Load(ctx, r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != nil {
				t.Errorf("expected no identity, got %+v", got)
			}
		})
	}
}

func TestManager_OtherSecretRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()
	issuer := NewManager(store, "secret-one", time.Hour, false)
	other := NewManager(store, "secret-two", time.Hour, false)

	rec := httptest.NewRecorder()
	if err := issuer.Start(ctx, rec, httptest.NewRequest(http.MethodPost, "/", nil), auth.Identity{CustomerID: "a", Name: "a"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got, _ := other.Load(ctx, requestWithCookies(rec)); got != nil {
		t.Error("cookie signed with another secret must not resolve")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.SaveSession(ctx, "k", auth.Identity{CustomerID: "a"}, time.Minute); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if _, err := store.LoadSession(ctx, "k"); err != nil {
		t.Fatalf("LoadSession: %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := store.LoadSession(ctx, "k"); err == nil {
		t.Error("expected expired session to miss")
	}
}

func TestFlash_AddAndPop(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()

	first := httptest.NewRecorder()
	m.AddFlash(first, httptest.NewRequest(http.MethodPost, "/uploader", nil), FlashInfo, "Stored file: report.csv")

	second := httptest.NewRecorder()
	m.AddFlash(second, requestWithCookies(first), FlashError, "second")

	pop := httptest.NewRecorder()
	r := requestWithCookies(second)
	got := m.PopFlashes(pop, r)

	want := []Flash{
		{Category: FlashInfo, Message: "Stored file: report.csv"},
		{Category: FlashError, Message: "second"},
	}
	if len(got) != len(want) {
		t.Fatalf("PopFlashes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("flash[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	cleared := pop.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("expected flash cookie to be cleared, got %v", cleared)
	}
}

func TestFlash_TamperedIgnored(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: FlashCookieName, Value: "W3siYyI6ImluZm8iLCJtIjoiaGkifV0.forged"})

	if got := m.PopFlashes(httptest.NewRecorder(), r); len(got) != 0 {
		t.Errorf("expected tampered flash to be dropped, got %v", got)
	}
}

func TestFlash_NoneQueued(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()

	rec := httptest.NewRecorder()
	if got := m.PopFlashes(rec, httptest.NewRequest(http.MethodGet, "/", nil)); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("no cookie should be written when nothing was queued")
	}
}
