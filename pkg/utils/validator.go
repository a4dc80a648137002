package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxCommentLength bounds free-text fields such as comments and rejection reasons
const MaxCommentLength = 2000

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	idPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)
)

// SanitizeString removes control characters other than newlines and tabs
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeComment strips control characters and surrounding whitespace, then checks the length
func SanitizeComment(s string) (string, error) {
	s = strings.TrimSpace(SanitizeString(s))
	if n := utf8.RuneCountInString(s); n > MaxCommentLength {
		return "", fmt.Errorf("text is %d characters long, at most %d allowed", n, MaxCommentLength)
	}
	return s, nil
}

// ValidateID checks an identifier supplied by a caller, such as a user or request id
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid identifier: %q", id)
	}
	return nil
}
