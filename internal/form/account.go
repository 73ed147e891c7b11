package form

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field limits.
const (
	MaxNameLength     = 64
	MaxEmailLength    = 254
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var nameChars = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// reservedNames cannot be registered; they collide with page routes or
// read as system accounts.
var reservedNames = map[string]bool{
	"admin":    true,
	"customer": true,
	"healthz":  true,
	"index":    true,
	"login":    true,
	"logout":   true,
	"metrics":  true,
	"readyz":   true,
	"signup":   true,
	"upload":   true,
	"uploader": true,
	"root":     true,
	"system":   true,
}

// SignupInput is the raw signup form.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Confirm  string
}

// Signup is a validated signup request.
type Signup struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the raw login form.
type LoginInput struct {
	Name     string
	Password string
}

// Login is a validated login request.
type Login struct {
	Name     string
	Password string
}

// ValidateSignup checks name, email and password fields.
// Email addresses are lower-cased; names keep their case.
func ValidateSignup(in SignupInput) Result[Signup] {
	var errs Errors

	name := strings.TrimSpace(in.Name)
	if msg := checkName(name); msg != "" {
		errs.Add("name", msg)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if msg := checkEmail(email); msg != "" {
		errs.Add("email", msg)
	}

	switch n := utf8.RuneCountInString(in.Password); {
	case n == 0:
		errs.Add("password", "Password is required.")
	case n < MinPasswordLength:
		errs.Add("password", "Password must be at least 8 characters.")
	case n > MaxPasswordLength:
		errs.Add("password", "Password must be at most 128 characters.")
	case in.Password != in.Confirm:
		errs.Add("confirm", "Passwords do not match.")
	}

	if len(errs) > 0 {
		return Invalid[Signup](errs)
	}
	return Valid(Signup{Name: name, Email: email, Password: in.Password})
}

// ValidateLogin only checks presence; credential checks belong to the service.
func ValidateLogin(in LoginInput) Result[Login] {
	var errs Errors

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs.Add("name", "Username is required.")
	}
	if in.Password == "" {
		errs.Add("password", "Password is required.")
	}

	if len(errs) > 0 {
		return Invalid[Login](errs)
	}
	return Valid(Login{Name: name, Password: in.Password})
}

func checkName(name string) string {
	switch {
	case name == "":
		return "Username is required."
	case len(name) > MaxNameLength:
		return "Username must be at most 64 characters."
	case !nameChars.MatchString(name):
		return "Username may contain letters, digits, '.', '_' and '-' and must start with a letter or digit."
	case reservedNames[strings.ToLower(name)]:
		return "This username is reserved."
	}
	return ""
}

func checkEmail(email string) string {
	if email == "" {
		return "Email is required."
	}
	if len(email) > MaxEmailLength {
		return "Email is too long."
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "Email address is not valid."
	}
	at := strings.LastIndexByte(email, '@')
	if !strings.Contains(email[at+1:], ".") {
		return "Email address is not valid."
	}
	return ""
}
