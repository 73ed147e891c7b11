package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/filedesk/filedesk/internal/service"
	"github.com/filedesk/filedesk/internal/web"
)

// Index lists the most recent uploads.
// GET / and GET /index
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.intake.RecentUploads(r.Context(), h.opts.RecentLimit)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := h.page(w, r, "Recent uploads")
	data.Uploads = uploads
	h.render(w, r, http.StatusOK, web.PageIndex, data)
}

// Customer lists one customer's uploads, newest first.
// GET /customer/{name}
func (h *Handler) Customer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	customer, uploads, err := h.intake.CustomerUploads(r.Context(), name, h.opts.CustomerPageLimit)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			h.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}

	data := h.page(w, r, customer.Name)
	data.Customer = customer
	data.Uploads = uploads
	h.render(w, r, http.StatusOK, web.PageCustomer, data)
}
