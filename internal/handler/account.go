package handler

import (
	"errors"
	"net/http"

	"github.com/filedesk/filedesk/internal/auth"
	"github.com/filedesk/filedesk/internal/form"
	"github.com/filedesk/filedesk/internal/middleware"
	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/service"
	"github.com/filedesk/filedesk/internal/session"
	"github.com/filedesk/filedesk/internal/web"
)

// LoginForm renders the login page.
// GET /login
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.IdentityFromContext(r.Context()) != nil {
		http.Redirect(w, r, middleware.SafeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}

	data := h.page(w, r, "Log in")
	data.Values = map[string]string{"next": r.URL.Query().Get("next")}
	h.render(w, r, http.StatusOK, web.PageLogin, data)
}

// Login checks credentials and starts a session. Bad credentials re-render
// the form with a message and no session.
// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, formError("The form could not be read."))
		return
	}

	customer, err := h.accounts.Authenticate(r.Context(), form.LoginInput{
		Name:     r.PostFormValue("name"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			h.renderLogin(w, r, http.StatusUnprocessableEntity, ve.Fields)
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.renderLogin(w, r, http.StatusUnauthorized, formError("Invalid username or password."))
			return
		}
		h.serverError(w, r, err)
		return
	}

	if err := h.startSession(w, r, customer); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.sessions.AddFlash(w, r, session.FlashInfo, "Welcome back, "+customer.Name+".")
	http.Redirect(w, r, middleware.SafeNext(r.PostFormValue("next")), http.StatusSeeOther)
}

// SignupForm renders the signup page.
// GET /signup
func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageSignup, h.page(w, r, "Sign up"))
}

// Signup creates a customer and logs them in.
// POST /signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignup(w, r, http.StatusBadRequest, formError("The form could not be read."))
		return
	}

	customer, err := h.accounts.Signup(r.Context(), form.SignupInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	})
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			status := http.StatusUnprocessableEntity
			if ve.Reason == "duplicate" {
				status = http.StatusConflict
			}
			h.renderSignup(w, r, status, ve.Fields)
			return
		}
		h.serverError(w, r, err)
		return
	}

	if err := h.startSession(w, r, customer); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.sessions.AddFlash(w, r, session.FlashInfo, "Account created. Welcome, "+customer.Name+".")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the session.
// GET /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), w, r); err != nil {
		h.logger.Warn("end session", "error", err, "request_id", middleware.GetRequestID(r.Context()))
	}
	h.sessions.AddFlash(w, r, session.FlashInfo, "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, customer *model.Customer) error {
	return h.sessions.Start(r.Context(), w, r, auth.Identity{
		CustomerID: customer.ID,
		Name:       customer.Name,
	})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, errs form.Errors) {
	data := h.page(w, r, "Log in")
	data.Errors = errs
	data.Values = map[string]string{
		"name": r.PostFormValue("name"),
		"next": r.PostFormValue("next"),
	}
	h.render(w, r, status, web.PageLogin, data)
}

func (h *Handler) renderSignup(w http.ResponseWriter, r *http.Request, status int, errs form.Errors) {
	data := h.page(w, r, "Sign up")
	data.Errors = errs
	data.Values = map[string]string{
		"name":  r.PostFormValue("name"),
		"email": r.PostFormValue("email"),
	}
	h.render(w, r, status, web.PageSignup, data)
}

func formError(message string) form.Errors {
	var errs form.Errors
	errs.Add("form", message)
	return errs
}
