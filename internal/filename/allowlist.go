// Package filename checks and normalizes client-supplied upload names.
package filename

import (
	"sort"
	"strings"
)

// DefaultExtensions is the allow-set used when none is configured.
var DefaultExtensions = []string{"txt", "pdf", "png", "jpg", "jpeg", "gif", "csv", "xls", "xlsx"}

// AllowList is an immutable set of permitted extensions.
type AllowList struct {
	set    map[string]struct{}
	sorted []string
}

// NewAllowList builds an allow-list from extensions. Entries are lower-cased
// and a leading dot is ignored; blanks are dropped.
func NewAllowList(extensions []string) *AllowList {
	a := &AllowList{set: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		if _, ok := a.set[ext]; ok {
			continue
		}
		a.set[ext] = struct{}{}
		a.sorted = append(a.sorted, ext)
	}
	sort.Strings(a.sorted)
	return a
}

// Extension returns the lower-cased text after the last dot of name.
// ok is false when name has no dot.
func Extension(name string) (ext string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", false
	}
	return strings.ToLower(name[i+1:]), true
}

// Allowed reports whether name carries a permitted extension.
// The check is purely syntactic: file contents are never inspected.
func (a *AllowList) Allowed(name string) bool {
	ext, ok := Extension(name)
	if !ok {
		return false
	}
	_, found := a.set[ext]
	return found
}

// Extensions returns the permitted extensions in sorted order.
func (a *AllowList) Extensions() []string {
	out := make([]string, len(a.sorted))
	copy(out, a.sorted)
	return out
}

// String renders the allow-set for user-facing messages.
func (a *AllowList) String() string {
	return strings.Join(a.sorted, ", ")
}

// ExtensionAllowed reports whether name has at least one dot and the
// lower-cased text after the last dot is in allowed.
func ExtensionAllowed(name string, allowed []string) bool {
	return NewAllowList(allowed).Allowed(name)
}
