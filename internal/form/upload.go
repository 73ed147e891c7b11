package form

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/filedesk/filedesk/internal/filename"
)

// MaxDescriptionLength bounds the optional description.
const MaxDescriptionLength = 500

// UploadInput is the raw multipart upload form without the file body.
type UploadInput struct {
	FileName    string
	Description string
	HasFile     bool
}

// Upload is a validated upload request.
type Upload struct {
	// FileName is the sanitized name used for storage and the catalog.
	FileName string
	// OriginalName is the name the client sent.
	OriginalName string
	Description  string
}

// ValidateUpload checks the extension against allowed, sanitizes the name and
// defaults an empty description to the sanitized name.
func ValidateUpload(in UploadInput, allowed *filename.AllowList) Result[Upload] {
	var errs Errors

	if !in.HasFile || in.FileName == "" {
		errs.Add("file", "No file selected.")
		return Invalid[Upload](errs)
	}

	if !allowed.Allowed(in.FileName) {
		errs.Add("file", "File type not allowed. Allowed types are: "+allowed.String()+".")
		return Invalid[Upload](errs)
	}

	name, err := filename.Sanitize(in.FileName)
	if err != nil {
		if errors.Is(err, filename.ErrEmptyName) {
			errs.Add("file", "File name contains no usable characters.")
			return Invalid[Upload](errs)
		}
		errs.Add("file", err.Error())
		return Invalid[Upload](errs)
	}
	// Sanitizing can drop characters around the dot; re-check what will be stored.
	if !allowed.Allowed(name) {
		errs.Add("file", "File type not allowed. Allowed types are: "+allowed.String()+".")
		return Invalid[Upload](errs)
	}

	desc := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		errs.Add("description", "Description must be at most 500 characters.")
		return Invalid[Upload](errs)
	}
	if desc == "" {
		desc = name
	}

	return Valid(Upload{FileName: name, OriginalName: in.FileName, Description: desc})
}
