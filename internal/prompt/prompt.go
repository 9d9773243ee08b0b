// Package prompt normalizes user prompts before they are stored or sent to a
// generation provider.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"aivideo/internal/domain"
)

const (
	// MaxLength is the longest prompt Runway accepts, in runes. It bounds the
	// text sent upstream, style suffix included.
	MaxLength = 1000
	// MaxStyleLength caps a style name in runes.
	MaxStyleLength = 40
)

var lower = cases.Lower(language.Und)

// Normalize trims, NFC-normalizes and collapses internal whitespace so that
// visually identical prompts compare equal.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Validate normalizes s and checks its length in runes.
func Validate(s string, minLength int) (string, error) {
	n := Normalize(s)
	if n == "" {
		return "", fmt.Errorf("%w: prompt is required", domain.ErrInvalidPrompt)
	}
	length := utf8.RuneCountInString(n)
	if minLength > 0 && length < minLength {
		return "", fmt.Errorf("%w: prompt must be at least %d characters", domain.ErrInvalidPrompt, minLength)
	}
	if length > MaxLength {
		return "", fmt.Errorf("%w: prompt must be at most %d characters", domain.ErrInvalidPrompt, MaxLength)
	}
	return n, nil
}

// NormalizeStyle lower-cases a style name; empty means the default style.
func NormalizeStyle(style string) string {
	s := lower.String(Normalize(style))
	if s == "" {
		return domain.DefaultStyle
	}
	return s
}

// ValidateStyle normalizes style and rejects names longer than
// MaxStyleLength.
func ValidateStyle(style string) (string, error) {
	s := NormalizeStyle(style)
	if utf8.RuneCountInString(s) > MaxStyleLength {
		return "", fmt.Errorf("%w: style must be at most %d characters", domain.ErrInvalidSettings, MaxStyleLength)
	}
	return s, nil
}

// WithStyle appends the style hint the provider sees. "none" leaves the
// prompt untouched. The prompt is cut so the result never exceeds MaxLength.
func WithStyle(p, style string) string {
	s := NormalizeStyle(style)
	if s == "none" {
		return truncate(p, MaxLength)
	}
	suffix := ", " + s + " style"
	room := MaxLength - utf8.RuneCountInString(suffix)
	if room <= 0 {
		return truncate(p, MaxLength)
	}
	return strings.TrimSpace(truncate(p, room)) + suffix
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
