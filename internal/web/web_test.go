package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/filedesk/filedesk/internal/auth"
	"github.com/filedesk/filedesk/internal/form"
	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/session"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderer_AllPages(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)

	data := Page{
		Title:        "Test",
		Identity:     &auth.Identity{CustomerID: "01H", Name: "alice"},
		AuthEnabled:  true,
		AllowedTypes: "csv, txt",
		MaxSize:      "32 MiB",
		Customer:     &model.Customer{Name: "alice"},
	}

	for _, name := range pages {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			if err := r.Render(rec, http.StatusOK, name, data); err != nil {
				t.Fatalf("Render(%s): %v", name, err)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			if !strings.Contains(rec.Body.String(), "Signed in as alice") {
				t.Error("layout not rendered")
			}
		})
	}
}

func TestRenderer_IndexListsUploads(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)

	rec := httptest.NewRecorder()
	err := r.Render(rec, http.StatusOK, PageIndex, Page{
		Flashes: []session.Flash{{Category: session.FlashInfo, Message: "Stored file: report.csv"}},
		Uploads: []*model.Upload{{
			FileName:          "report.csv",
			Description:       "<script>alert(1)</script>",
			Size:              2048,
			ReplicationStatus: model.ReplicationReplicated,
			CreatedAt:         time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"Stored file: report.csv",
		"report.csv",
		"2 KiB",
		"2024-03-01 09:30:00 UTC",
		"&lt;script&gt;",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("description was not escaped")
	}
}

func TestRenderer_FormErrorsAndValues(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)

	var errs form.Errors
	errs.Add("email", "That email address is already registered.")

	rec := httptest.NewRecorder()
	err := r.Render(rec, http.StatusUnprocessableEntity, PageSignup, Page{
		AuthEnabled: true,
		Errors:      errs,
		Values:      map[string]string{"name": "bob", "email": "bob@example.com"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "already registered") {
		t.Error("field error not shown")
	}
	if !strings.Contains(body, `value="bob@example.com"`) {
		t.Error("submitted value not preserved")
	}
	if !strings.Contains(body, "Log in") {
		t.Error("anonymous nav not shown")
	}
}

func TestRenderer_UnknownPage(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)

	rec := httptest.NewRecorder()
	if err := r.Render(rec, http.StatusOK, "nope.html", Page{}); err == nil {
		t.Fatal("expected error for unknown page")
	}
	if rec.Body.Len() != 0 {
		t.Error("nothing should be written for an unknown page")
	}
}

func TestStatic_ServesStylesheet(t *testing.T) {
	t.Parallel()

	f, err := Static().Open("style.css")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(data) == 0 {
		t.Error("stylesheet is empty")
	}
}
