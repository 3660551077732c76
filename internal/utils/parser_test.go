package utils

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"500ms":      500 * time.Millisecond,
		"2h":         2 * time.Hour,
		"1h30m":      90 * time.Minute,
		"02:00:00":   2 * time.Hour,
		"0:00:05":    5 * time.Second,
		"2:30":       2*time.Hour + 30*time.Minute,
		"1-00:00:00": 24 * time.Hour,
		"2-1:30":     49*time.Hour + 30*time.Minute,
	}

	for input, want := range cases {
		got, err := ParseDuration(input)
		if err != nil {
			t.Errorf("ParseDuration(%q) returned error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDuration(%q) = %v; want %v", input, got, want)
		}
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1:2:3:4", "x:10", "-1:00", "1:-5", "1-2"} {
		if _, err := ParseDuration(input); err == nil {
			t.Errorf("ParseDuration(%q) expected error", input)
		}
	}
}
