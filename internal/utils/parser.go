package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// clockUnits are the units of "H:MM" and "H:MM:SS" walltimes, largest first.
var clockUnits = []time.Duration{time.Hour, time.Minute, time.Second}

// ParseDuration reads a walltime in one of the forms schedulers and Go accept:
// "1h30m" (time.ParseDuration), "H:MM", "H:MM:SS" and SLURM's "D-H:MM:SS".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, fmt.Errorf("empty duration string")
	case strings.Contains(s, ":"):
		return parseClock(s)
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (expected 1h30m, 2:30, 02:00:00 or 1-00:00:00)", s)
	}
	return d, nil
}

func parseClock(s string) (time.Duration, error) {
	var total time.Duration
	clock := s
	if days, rest, ok := strings.Cut(s, "-"); ok {
		n, err := clockField(days)
		if err != nil {
			return 0, fmt.Errorf("invalid days in %q: %w", s, err)
		}
		total = time.Duration(n) * 24 * time.Hour
		clock = rest
	}

	fields := strings.Split(clock, ":")
	if len(fields) > len(clockUnits) {
		return 0, fmt.Errorf("invalid walltime %q (at most hours, minutes and seconds)", s)
	}
	for i, field := range fields {
		n, err := clockField(field)
		if err != nil {
			return 0, fmt.Errorf("invalid walltime %q: %w", s, err)
		}
		total += time.Duration(n) * clockUnits[i]
	}
	return total, nil
}

func clockField(field string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", field)
	}
	return n, nil
}
