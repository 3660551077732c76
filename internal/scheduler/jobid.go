package scheduler

import (
	"regexp"
	"strings"

	"github.com/Justype/simmaker/internal/utils"
)

// Submission acknowledgements printed by the schedulers
var jobIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Submitted batch job (\d+)`),  // SLURM
	regexp.MustCompile(`Job <(\d+)> is submitted`),   // LSF
	regexp.MustCompile(`submitted to cluster (\d+)`), // HTCondor
	regexp.MustCompile(`^(\d+\..*|^\d+)$`),           // PBS prints the bare id
}

// ParseJobID extracts the job identifier from one line of submission output.
// Lines that match no known acknowledgement are returned trimmed, unchanged,
// so a launch script may print ids directly.
func ParseJobID(line string) string {
	line = strings.TrimSpace(line)
	for _, re := range jobIDPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return line
}

// ParseJobIDs extracts one job id per non-empty line of output.
func ParseJobIDs(output string) []string {
	var ids []string
	for _, line := range utils.NonEmptyLines(output) {
		ids = append(ids, ParseJobID(line))
	}
	return ids
}
