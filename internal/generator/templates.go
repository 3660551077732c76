package generator

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Justype/simmaker/internal/jobs"
	"github.com/Justype/simmaker/internal/scheduler"
	"github.com/Justype/simmaker/internal/utils"
)

// The following variables are available in skeletons:
//
// Basedir             remote directory holding the generated scripts
// JobsStatesFilename  remote file jobs append "<id>: <state>" lines to
// Index               subgroup index, -1 in whole-group skeletons
// Simulations         simulations of the subgroup (or of the batch)
//   .CommandLine      command generating the simulation
//   .Folder           remote output directory
//   .Settings         resolved settings, name -> value
//   .GlobalSettings   resolved global settings, name -> value
// SubgroupScripts     remote paths of the subgroup scripts (whole-group skeletons)
// Scheduler           scheduler of the recipe (SLURM, PBS, LSF, HTCondor)
//
// Helpers:
//
// walltime "2h"       walltime in the scheduler's format
// submit              command submitting a script
// jobid               shell reference to the running job id, such as ${SLURM_JOB_ID}
// report "succeed"    command appending the job state to the jobs states file
// join, quote         strings.Join and POSIX shell quoting
//
// See https://golang.org/pkg/text/template for more information

// SimulationData is one simulation as seen by a skeleton
type SimulationData struct {
	CommandLine    string
	Folder         string
	Settings       map[string]any
	GlobalSettings map[string]any
}

// TemplateData is the data a skeleton is executed with
type TemplateData struct {
	Basedir            string
	JobsStatesFilename string
	Index              int
	Simulations        []SimulationData
	SubgroupScripts    []string
	Scheduler          string
}

func templateFuncs(recipe *Recipe) template.FuncMap {
	sched := scheduler.SchedulerType(recipe.Scheduler)
	if t, err := scheduler.ParseType(recipe.Scheduler); err == nil {
		sched = t
	}

	return template.FuncMap{
		"walltime": func(s string) (string, error) {
			d, err := utils.ParseDuration(s)
			if err != nil {
				return "", err
			}
			return scheduler.FormatTime(sched, d)
		},
		"submit": func() (string, error) {
			return scheduler.SubmitCommand(sched)
		},
		"jobid": func() (string, error) {
			return jobIDReference(sched)
		},
		"report": func(state string) (string, error) {
			s, err := jobs.ParseState(state)
			if err != nil {
				return "", err
			}
			id, err := jobIDReference(sched)
			if err != nil {
				return "", err
			}
			line := jobs.FormatUpdate(jobs.Update{ID: id, State: s})
			return fmt.Sprintf(`echo "%s" >> %s`, line, utils.ShellQuote(recipe.JobsStatesPath())), nil
		},
		"join":  strings.Join,
		"quote": utils.ShellQuote,
	}
}

func jobIDReference(sched scheduler.SchedulerType) (string, error) {
	name, err := scheduler.JobIDVariable(sched)
	if err != nil {
		return "", err
	}
	return "${" + name + "}", nil
}
