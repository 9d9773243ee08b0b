package prompt

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"aivideo/internal/domain"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  a   cat \n on a\tskateboard ": "a cat on a skateboard",
		"cafe\u0301":                     "caf\u00e9",
		"":                               "",
		"   ":                            "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		in    string
		min   int
		valid bool
	}{
		{"", 3, false},
		{"   ", 3, false},
		{"ab", 3, false},
		{"abc", 3, true},
		{"日本語", 3, true},
		{"ab", 0, true},
		{strings.Repeat("x", MaxLength+1), 3, false},
	}
	for _, tc := range tests {
		_, err := Validate(tc.in, tc.min)
		if tc.valid && err != nil {
			t.Fatalf("Validate(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.valid && !errors.Is(err, domain.ErrInvalidPrompt) {
			t.Fatalf("Validate(%q) = %v, want ErrInvalidPrompt", tc.in, err)
		}
	}
}

func TestStyleHelpers(t *testing.T) {
	if got := NormalizeStyle(""); got != domain.DefaultStyle {
		t.Fatalf("NormalizeStyle(\"\") = %q", got)
	}
	if got, err := ValidateStyle("  FILM   noir "); err != nil || got != "film noir" {
		t.Fatalf("ValidateStyle = %q, %v", got, err)
	}
	if _, err := ValidateStyle(strings.Repeat("s", MaxStyleLength+1)); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("long style err = %v, want ErrInvalidSettings", err)
	}
	if got := WithStyle("a lighthouse", "Anime"); got != "a lighthouse, anime style" {
		t.Fatalf("WithStyle = %q", got)
	}
	if got := WithStyle("a lighthouse", "none"); got != "a lighthouse" {
		t.Fatalf("WithStyle none = %q", got)
	}
}

func TestWithStyleStaysWithinMaxLength(t *testing.T) {
	long := strings.Repeat("日", MaxLength)
	if _, err := Validate(long, 3); err != nil {
		t.Fatalf("Validate full-length prompt: %v", err)
	}
	for _, style := range []string{"cinematic", "none", strings.Repeat("z", MaxStyleLength)} {
		got := WithStyle(long, style)
		if n := utf8.RuneCountInString(got); n > MaxLength {
			t.Fatalf("WithStyle(%q) = %d runes, want <= %d", style, n, MaxLength)
		}
		if style != "none" && !strings.HasSuffix(got, ", "+style+" style") {
			t.Fatalf("WithStyle(%q) dropped the style suffix", style)
		}
	}
	if got := WithStyle("short", "cinematic"); got != "short, cinematic style" {
		t.Fatalf("short prompt changed: %q", got)
	}
}
