package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/filedesk/filedesk/internal/cache"
	"github.com/filedesk/filedesk/internal/filename"
	"github.com/filedesk/filedesk/internal/metrics"
	"github.com/filedesk/filedesk/internal/middleware"
	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/repository"
	"github.com/filedesk/filedesk/internal/service"
	"github.com/filedesk/filedesk/internal/session"
	"github.com/filedesk/filedesk/internal/storage"
	"github.com/filedesk/filedesk/internal/testutil"
	"github.com/filedesk/filedesk/internal/web"
)

const testMaxUpload = 1024

type appFixture struct {
	server  *httptest.Server
	client  *http.Client
	catalog *repository.Memory
	blobs   *storage.LocalStore
	metrics *metrics.InMemoryRecorder
	alice   *model.Customer
}

type fixtureOptions struct {
	authRequired bool
	limiter      middleware.Limiter
}

func newAppFixture(t *testing.T, opts fixtureOptions) *appFixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog := repository.NewMemory()
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	recorder := metrics.NewInMemory()

	alice := testutil.NewTestCustomer(t, "alice")
	if err := catalog.CreateCustomer(ctx, alice); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	accounts := service.NewAccountService(catalog, logger, recorder)
	accounts.SetHashParams(testutil.CheapParams)
	placeholder, err := accounts.EnsurePlaceholderOwner(ctx, "test_client")
	if err != nil {
		t.Fatalf("EnsurePlaceholderOwner: %v", err)
	}

	intake := service.NewIntakeService(catalog, catalog, blobs, nil,
		filename.NewAllowList(filename.DefaultExtensions), testMaxUpload, logger, recorder)

	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	sessions := session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour, false)

	pages := New(intake, accounts, sessions, renderer, logger, Options{
		AuthRequired:       opts.authRequired,
		PlaceholderOwnerID: placeholder.ID,
		RecentLimit:        4,
	})

	reg := prometheus.NewRegistry()
	router := NewRouter(RouterConfig{
		Pages:          pages,
		Health:         NewHealthHandler(HealthCheck{Name: "catalog", Checker: catalog}),
		Logger:         logger,
		Gatherer:       reg,
		HTTPMetrics:    middleware.NewHTTPMetrics(reg),
		Limiter:        opts.limiter,
		RateLimit:      opts.limiter != nil,
		RateLimitRPS:   1,
		RateLimitBurst: 2,
		IsDevelopment:  true,
		MaxUploadSize:  testMaxUpload,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &appFixture{
		server:  server,
		client:  client,
		catalog: catalog,
		blobs:   blobs,
		metrics: recorder,
		alice:   alice,
	}
}

func (f *appFixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (f *appFixture) postForm(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.PostForm(f.server.URL+path, values)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (f *appFixture) upload(t *testing.T, fileName string, content []byte, description string) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = part.Write(content)
	}
	if description != "" {
		_ = mw.WriteField("description", description)
	}
	_ = mw.Close()

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/uploader", &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("POST /uploader: %v", err)
	}
	return resp, readBody(t, resp)
}

func (f *appFixture) login(t *testing.T, name, password string) *http.Response {
	t.Helper()
	resp, _ := f.postForm(t, "/login", url.Values{"name": {name}, "password": {password}})
	return resp
}

func (f *appFixture) hasSession(t *testing.T) bool {
	t.Helper()
	u, _ := url.Parse(f.server.URL)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == session.CookieName && c.Value != "" {
			return true
		}
	}
	return false
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return n
}

func TestIndex_Empty(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})

	for _, path := range []string{"/", "/index"} {
		resp, body := f.get(t, path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, resp.StatusCode)
		}
		if !strings.Contains(body, "No files have been uploaded yet") {
			t.Errorf("GET %s missing empty state", path)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Content-Type = %q", ct)
		}
	}
}

func TestUpload_RequiresLogin(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})

	resp, _ := f.get(t, "/upload")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("GET /upload status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login?next=%2Fupload" {
		t.Errorf("Location = %q", loc)
	}

	resp, _ = f.upload(t, "report.csv", []byte("a,b\n"), "")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("POST /uploader status = %d, want 303", resp.StatusCode)
	}
	uploads, _ := f.catalog.RecentUploads(context.Background(), 10)
	if len(uploads) != 0 {
		t.Errorf("anonymous upload was cataloged: %d records", len(uploads))
	}
}

func TestUpload_AcceptedAndListed(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})

	if resp := f.login(t, "alice", "password-alice"); resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	resp, _ := f.upload(t, "../Quarterly Report.CSV", []byte("a,b\n1,2\n"), "")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("upload status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	_, body := f.get(t, "/")
	if !strings.Contains(body, "Stored file: Quarterly_Report.CSV") {
		t.Errorf("confirmation flash missing from index:\n%s", body)
	}
	// Flash, file name cell and defaulted description cell.
	if strings.Count(body, "Quarterly_Report.CSV") < 3 {
		t.Errorf("upload not listed with default description:\n%s", body)
	}

	// The flash is shown once.
	_, body = f.get(t, "/")
	if strings.Contains(body, "Stored file:") {
		t.Error("flash shown twice")
	}

	uploads, _ := f.catalog.RecentUploads(context.Background(), 10)
	if len(uploads) != 1 {
		t.Fatalf("records = %d, want 1", len(uploads))
	}
	u := uploads[0]
	if u.OwnerID != f.alice.ID {
		t.Errorf("owner = %s, want alice", u.OwnerID)
	}
	if u.Description != u.FileName {
		t.Errorf("description = %q, want file name", u.Description)
	}
	if u.ReplicationStatus != model.ReplicationDisabled {
		t.Errorf("replication status = %s, want disabled", u.ReplicationStatus)
	}
	if ok, _ := f.blobs.Exists(u.StorageKey); !ok {
		t.Error("blob missing")
	}
}

func TestUpload_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		fileName   string
		content    []byte
		wantStatus int
		wantText   string
		wantReason string
	}{
		{
			name:       "disallowed extension",
			fileName:   "malware.exe",
			content:    []byte("MZ"),
			wantStatus: http.StatusBadRequest,
			wantText:   "csv, gif, jpeg, jpg, pdf, png, txt, xls, xlsx",
			wantReason: metrics.RejectExtension,
		},
		{
			name:       "no file",
			wantStatus: http.StatusBadRequest,
			wantReason: metrics.RejectNoFile,
		},
		{
			name:       "too large",
			fileName:   "big.txt",
			content:    bytes.Repeat([]byte("x"), testMaxUpload+1),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantText:   "File is too large. The limit is 1 KiB.",
			wantReason: metrics.RejectTooLarge,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newAppFixture(t, fixtureOptions{authRequired: true})
			f.login(t, "alice", "password-alice")

			resp, body := f.upload(t, tt.fileName, tt.content, "kept description")
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(body, `action="/uploader"`) {
				t.Error("upload form not re-shown")
			}
			if !strings.Contains(body, "flash-error") {
				t.Error("error flash missing")
			}
			if tt.wantText != "" && !strings.Contains(body, tt.wantText) {
				t.Errorf("body missing %q", tt.wantText)
			}
			if !strings.Contains(body, `value="kept description"`) {
				t.Error("description not preserved")
			}

			uploads, _ := f.catalog.RecentUploads(context.Background(), 10)
			if len(uploads) != 0 {
				t.Errorf("records = %d, want 0", len(uploads))
			}
			if n := countFiles(t, f.blobs.Root()); n != 0 {
				t.Errorf("blob files = %d, want 0", n)
			}
			if got := f.metrics.Snapshot().UploadsRejected[tt.wantReason]; got != 1 {
				t.Errorf("rejected[%s] = %d, want 1", tt.wantReason, got)
			}
		})
	}
}

func TestUpload_PlaceholderOwnerWhenAuthDisabled(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: false})

	resp, _ := f.get(t, "/upload")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /upload status = %d, want 200", resp.StatusCode)
	}

	resp, _ = f.upload(t, "notes.txt", []byte("hello"), "my notes")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("upload status = %d, want 303", resp.StatusCode)
	}

	placeholder, err := f.catalog.GetCustomerByName(context.Background(), "test_client")
	if err != nil {
		t.Fatalf("placeholder: %v", err)
	}
	uploads, _ := f.catalog.RecentUploads(context.Background(), 1)
	if len(uploads) != 1 || uploads[0].OwnerID != placeholder.ID {
		t.Fatalf("upload not owned by placeholder: %+v", uploads)
	}
	if uploads[0].Description != "my notes" {
		t.Errorf("description = %q", uploads[0].Description)
	}
}

func TestIndex_ShowsNewestFirstUpToLimit(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"} {
		u := testutil.NewTestUpload(t, f.alice.ID, name, base.Add(time.Duration(i)*time.Minute))
		if err := f.catalog.CreateUpload(ctx, u); err != nil {
			t.Fatalf("CreateUpload: %v", err)
		}
	}

	_, body := f.get(t, "/")
	for _, shown := range []string{"f.txt", "e.txt", "d.txt", "c.txt"} {
		if !strings.Contains(body, shown) {
			t.Errorf("index missing %s", shown)
		}
	}
	for _, hidden := range []string{"a.txt", "b.txt"} {
		if strings.Contains(body, hidden) {
			t.Errorf("index shows %s beyond the limit", hidden)
		}
	}
	if strings.Index(body, "f.txt") > strings.Index(body, "c.txt") {
		t.Error("uploads not newest first")
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		user        string
		password    string
		wantStatus  int
		wantSession bool
		wantText    string
	}{
		{"valid", "alice", "password-alice", http.StatusSeeOther, true, ""},
		{"wrong password", "alice", "nope-nope", http.StatusUnauthorized, false, "Invalid username or password."},
		{"unknown user", "mallory", "password-mallory", http.StatusUnauthorized, false, "Invalid username or password."},
		{"missing fields", "", "", http.StatusUnprocessableEntity, false, "Username is required."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newAppFixture(t, fixtureOptions{authRequired: true})

			resp, body := f.postForm(t, "/login", url.Values{"name": {tt.user}, "password": {tt.password}})
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := f.hasSession(t); got != tt.wantSession {
				t.Errorf("session established = %v, want %v", got, tt.wantSession)
			}
			if tt.wantText != "" && !strings.Contains(body, tt.wantText) {
				t.Errorf("body missing %q", tt.wantText)
			}
		})
	}
}

func TestLogin_RedirectsToSafeNext(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})

	resp, _ := f.postForm(t, "/login", url.Values{
		"name": {"alice"}, "password": {"password-alice"}, "next": {"/customer/alice"},
	})
	if loc := resp.Header.Get("Location"); loc != "/customer/alice" {
		t.Errorf("Location = %q, want /customer/alice", loc)
	}

	f2 := newAppFixture(t, fixtureOptions{authRequired: true})
	resp, _ = f2.postForm(t, "/login", url.Values{
		"name": {"alice"}, "password": {"password-alice"}, "next": {"//evil.example/"},
	})
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestSignup(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})
	ctx := context.Background()

	before, _ := f.catalog.CountCustomers(ctx)

	resp, _ := f.postForm(t, "/signup", url.Values{
		"name": {"bob"}, "email": {"Bob@Example.com"}, "password": {"correct-horse"}, "confirm": {"correct-horse"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("signup status = %d, want 303", resp.StatusCode)
	}
	if !f.hasSession(t) {
		t.Error("signup did not log in")
	}
	_, body := f.get(t, "/")
	if !strings.Contains(body, "Signed in as bob") {
		t.Error("nav does not show the new customer")
	}

	after, _ := f.catalog.CountCustomers(ctx)
	if after != before+1 {
		t.Errorf("customers = %d, want %d", after, before+1)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})
	ctx := context.Background()

	before, _ := f.catalog.CountCustomers(ctx)

	resp, body := f.postForm(t, "/signup", url.Values{
		"name": {"alice2"}, "email": {f.alice.Email}, "password": {"correct-horse"}, "confirm": {"correct-horse"},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if !strings.Contains(body, "already registered") {
		t.Error("duplicate message missing")
	}
	if f.hasSession(t) {
		t.Error("failed signup established a session")
	}
	after, _ := f.catalog.CountCustomers(ctx)
	if after != before {
		t.Errorf("customers = %d, want %d", after, before)
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})

	f.login(t, "alice", "password-alice")
	resp, _ := f.get(t, "/logout")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp, _ = f.get(t, "/upload")
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("GET /upload after logout = %d, want 303", resp.StatusCode)
	}
}

func TestCustomerPage(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})
	ctx := context.Background()

	u := testutil.NewTestUpload(t, f.alice.ID, "mine.pdf", time.Now())
	if err := f.catalog.CreateUpload(ctx, u); err != nil {
		t.Fatalf("CreateUpload: %v", err)
	}

	resp, _ := f.get(t, "/customer/alice")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("anonymous status = %d, want 303", resp.StatusCode)
	}

	f.login(t, "alice", "password-alice")

	resp, body := f.get(t, "/customer/alice")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "mine.pdf") {
		t.Error("customer upload not listed")
	}

	resp, body = f.get(t, "/customer/ghost")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown customer status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(body, "Page not found") {
		t.Error("404 page not rendered")
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})

	resp, body := f.get(t, "/definitely/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(body, "Page not found") {
		t.Error("404 page not rendered")
	}

	req, _ := http.NewRequest(http.MethodDelete, f.server.URL+"/login", nil)
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServerError_RendersErrorPage(t *testing.T) {
	t.Parallel()

	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	h := New(nil, nil, session.NewManager(session.NewMemoryStore(), "s", time.Hour, false), renderer,
		slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})

	handler := middleware.RequestID(middleware.Recoverer(slog.New(slog.NewTextHandler(io.Discard, nil)), h)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-me")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Something went wrong") || !strings.Contains(body, "trace-me") {
		t.Errorf("500 page not rendered with reference:\n%s", body)
	}
}

type denyAfter struct {
	allowed int
	calls   int
}

func (d *denyAfter) CheckIPRateLimit(context.Context, string, string, int, int) (*cache.RateLimitResult, error) {
	d.calls++
	if d.calls > d.allowed {
		return &cache.RateLimitResult{Allowed: false, RetryAfter: 3 * time.Second}, nil
	}
	return &cache.RateLimitResult{Allowed: true, Remaining: 1}, nil
}

func TestLogin_RateLimited(t *testing.T) {
	t.Parallel()
	limiter := &denyAfter{allowed: 1}
	f := newAppFixture(t, fixtureOptions{authRequired: true, limiter: limiter})

	f.postForm(t, "/login", url.Values{"name": {"alice"}, "password": {"wrong-password"}})
	resp, body := f.postForm(t, "/login", url.Values{"name": {"alice"}, "password": {"password-alice"}})

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "3" {
		t.Errorf("Retry-After = %q, want 3", got)
	}
	if !strings.Contains(body, "Too many attempts") {
		t.Error("rate limit message missing")
	}
	if !strings.Contains(body, `value="alice"`) {
		t.Error("name not preserved")
	}
	if f.hasSession(t) {
		t.Error("rate-limited login established a session")
	}
	if got := f.metrics.Snapshot().Logins["rate_limited"]; got != 1 {
		t.Errorf("rate_limited logins = %d, want 1", got)
	}

	// Rendering the form is never limited.
	if resp, _ := f.get(t, "/login"); resp.StatusCode != http.StatusOK {
		t.Errorf("GET /login status = %d, want 200", resp.StatusCode)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})

	if resp, _ := f.get(t, "/healthz"); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}
	resp, body := f.get(t, "/readyz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"catalog":"ok"`) {
		t.Errorf("readyz = %d %s", resp.StatusCode, body)
	}

	f.get(t, "/")
	_, body = f.get(t, "/metrics")
	if !strings.Contains(body, `filedesk_http_requests_total{method="GET",route="/",status="200"}`) {
		t.Errorf("route metric missing:\n%s", body)
	}
}

func TestStaticAssets(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t, fixtureOptions{authRequired: true})

	resp, body := f.get(t, "/static/style.css")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body == "" {
		t.Error("empty stylesheet")
	}
}
