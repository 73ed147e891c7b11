package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/filedesk/filedesk/internal/auth"
	"github.com/filedesk/filedesk/internal/metrics"
	"github.com/filedesk/filedesk/internal/service"
	"github.com/filedesk/filedesk/internal/session"
	"github.com/filedesk/filedesk/internal/web"
)

// multipartMemory is how much of a multipart form is held in memory before
// parts spill to temporary files.
const multipartMemory = 1 << 20

// MultipartOverhead is the allowance for multipart framing and the
// description field on top of the file size limit.
const MultipartOverhead = 64 << 10

// UploadForm renders the upload page.
// GET /upload
func (h *Handler) UploadForm(w http.ResponseWriter, r *http.Request) {
	h.renderUploadForm(w, r, http.StatusOK, "", nil)
}

// Upload accepts a multipart upload with a "file" part and an optional
// "description" field, then redirects to the index with a confirmation.
// POST /uploader
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID := h.ownerID(r)
	if ownerID == "" {
		// RequireLogin normally catches this first.
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.UploadTooLarge(w, r)
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			h.renderUploadForm(w, r, http.StatusBadRequest, "The upload could not be read. Please try again.", nil)
			return
		}
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	description := r.FormValue("description")
	in := service.IntakeInput{
		Description: description,
		OwnerID:     ownerID,
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		in.FileName = header.Filename
		in.Body = file
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		h.serverError(w, r, err)
		return
	}

	upload, err := h.intake.Intake(r.Context(), in)
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			status := http.StatusBadRequest
			if ve.Reason == metrics.RejectTooLarge {
				status = http.StatusRequestEntityTooLarge
			}
			h.renderUploadForm(w, r, status, "", ve)
			return
		}
		if errors.Is(err, service.ErrCustomerNotFound) || errors.Is(err, service.ErrUnauthenticated) {
			// The session outlived its customer.
			_ = h.sessions.End(r.Context(), w, r)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.sessions.AddFlash(w, r, session.FlashInfo, "Stored file: "+upload.FileName)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// UploadTooLarge re-renders the upload form for a body over the size limit.
func (h *Handler) UploadTooLarge(w http.ResponseWriter, r *http.Request) {
	// Drain a little so the client sees the response instead of a reset.
	_, _ = io.CopyN(io.Discard, r.Body, MultipartOverhead)
	msg := "File is too large. The limit is " + service.FormatBytes(h.intake.MaxSize()) + "."
	h.renderUploadForm(w, r, http.StatusRequestEntityTooLarge, msg, nil)
}

// ownerID is the session customer, or the placeholder owner when login is
// not required.
func (h *Handler) ownerID(r *http.Request) string {
	if id := auth.CustomerIDFromContext(r.Context()); id != "" {
		return id
	}
	if !h.opts.AuthRequired {
		return h.opts.PlaceholderOwnerID
	}
	return ""
}

func (h *Handler) renderUploadForm(w http.ResponseWriter, r *http.Request, status int, message string, ve *service.ValidationError) {
	data := h.page(w, r, "Upload")
	data.AllowedTypes = h.intake.AllowList().String()
	data.MaxSize = service.FormatBytes(h.intake.MaxSize())

	if message != "" {
		data.Flashes = append(data.Flashes, session.Flash{Category: session.FlashError, Message: message})
	}
	if ve != nil {
		for _, fe := range ve.Fields {
			data.Flashes = append(data.Flashes, session.Flash{Category: session.FlashError, Message: fe.Message})
		}
	}
	if r.Method == http.MethodPost && r.MultipartForm != nil {
		data.Values = map[string]string{"description": r.FormValue("description")}
	}

	h.render(w, r, status, web.PageUpload, data)
}
