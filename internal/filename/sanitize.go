package filename

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds a sanitized name in bytes.
const MaxLength = 200

// ErrEmptyName is returned when nothing usable survives sanitization.
var ErrEmptyName = errors.New("file name is empty after sanitization")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Sanitize turns a client filename into a single safe path component.
//
// The name is NFKD-normalized and reduced to ASCII, path separators become
// whitespace, whitespace runs become a single underscore, and anything outside
// [A-Za-z0-9_.-] is dropped. Leading and trailing dots and underscores are
// trimmed, so the result can never be "." or ".." or start a hidden file.
// Case is preserved.
func Sanitize(name string) (string, error) {
	name = toASCII(norm.NFKD.String(name))

	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name == "" {
		return "", ErrEmptyName
	}

	stem, _, _ := strings.Cut(name, ".")
	if _, reserved := windowsDeviceNames[strings.ToUpper(stem)]; reserved {
		name = "_" + name
	}

	return truncate(name), nil
}

func toASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// truncate shortens name to MaxLength, keeping the extension intact.
func truncate(name string) string {
	if len(name) <= MaxLength {
		return name
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || len(name)-i >= MaxLength {
		return name[:MaxLength]
	}
	ext := name[i:]
	return strings.TrimRight(name[:MaxLength-len(ext)], "._") + ext
}
