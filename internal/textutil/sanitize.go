package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeLabel maps a chapter title to a filesystem-safe label. Letters,
// digits, spaces, underscores and hyphens survive; every other rune becomes
// an underscore. Surrounding spaces are trimmed. The result may be empty.
func SanitizeLabel(title string) string {
	title = norm.NFC.String(title)
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if keepRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return strings.Trim(norm.NFC.String(b.String()), " ")
}

func keepRune(r rune) bool {
	switch {
	case r == ' ' || r == '_' || r == '-':
		return true
	case unicode.IsLetter(r), unicode.IsDigit(r):
		return true
	default:
		return false
	}
}

// LabelFromFilename derives a chapter title from a file name: the extension
// is dropped and underscores and hyphens become spaces.
func LabelFromFilename(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(labelReplacer.Replace(stem))
}

var labelReplacer = strings.NewReplacer("_", " ", "-", " ")

// Stem returns the file name of path without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
