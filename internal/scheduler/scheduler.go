// Package scheduler knows the HPC job schedulers that simulation scripts are submitted to
package scheduler

import (
	"os"
	"strings"
)

// SchedulerType represents the type of job scheduler
type SchedulerType string

const (
	SchedulerUnknown  SchedulerType = ""
	SchedulerSLURM    SchedulerType = "SLURM"
	SchedulerPBS      SchedulerType = "PBS"
	SchedulerLSF      SchedulerType = "LSF"
	SchedulerHTCondor SchedulerType = "HTCondor"
)

// submitCommands maps each scheduler to the binary that queues a job script
var submitCommands = map[SchedulerType]string{
	SchedulerSLURM:    "sbatch",
	SchedulerPBS:      "qsub",
	SchedulerLSF:      "bsub",
	SchedulerHTCondor: "condor_submit",
}

// jobIDVariables maps each scheduler to the environment variable holding the current job id
var jobIDVariables = map[SchedulerType]string{
	SchedulerSLURM:    "SLURM_JOB_ID",
	SchedulerPBS:      "PBS_JOBID",
	SchedulerLSF:      "LSB_JOBID",
	SchedulerHTCondor: "_CONDOR_JOB_AD",
}

// Types returns every supported scheduler, in detection order.
func Types() []SchedulerType {
	return []SchedulerType{SchedulerSLURM, SchedulerPBS, SchedulerLSF, SchedulerHTCondor}
}

// ParseType converts a case-insensitive scheduler name into a SchedulerType.
func ParseType(name string) (SchedulerType, error) {
	for _, t := range Types() {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return SchedulerUnknown, &UnknownSchedulerError{Name: name}
}

// SubmitCommand returns the submission binary of the scheduler.
func SubmitCommand(t SchedulerType) (string, error) {
	cmd, ok := submitCommands[t]
	if !ok {
		return "", &UnknownSchedulerError{Name: string(t)}
	}
	return cmd, nil
}

// JobIDVariable returns the environment variable a running job can read its id from.
func JobIDVariable(t SchedulerType) (string, error) {
	name, ok := jobIDVariables[t]
	if !ok {
		return "", &UnknownSchedulerError{Name: string(t)}
	}
	return name, nil
}

// IsInsideJob checks if we're currently running inside a scheduler job.
// This is useful to warn before waiting on jobs from inside another job.
func IsInsideJob() bool {
	for _, t := range Types() {
		if _, ok := os.LookupEnv(jobIDVariables[t]); ok {
			return true
		}
	}
	return false
}
