package scheduler

import (
	"fmt"
	"time"
)

// FormatTime renders a walltime in the notation the scheduler expects.
// Non-positive durations render as an empty string.
func FormatTime(t SchedulerType, d time.Duration) (string, error) {
	switch t {
	case SchedulerSLURM:
		return formatSlurmTimeSpec(d), nil
	case SchedulerPBS, SchedulerHTCondor:
		return formatHMS(d), nil
	case SchedulerLSF:
		return formatLsfTime(d), nil
	}
	return "", &UnknownSchedulerError{Name: string(t)}
}

// formatSlurmTimeSpec uses D-HH:MM:SS once the walltime exceeds a day
func formatSlurmTimeSpec(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int64(d.Seconds())
	days := total / (24 * 3600)
	rem := total % (24 * 3600)
	hours := rem / 3600
	rem %= 3600
	minutes := rem / 60
	seconds := rem % 60
	if days > 0 {
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func formatHMS(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// LSF only takes hours and minutes
func formatLsfTime(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/3600, (total%3600)/60)
}
