// Package maker drives the rounds that turn unknown simulations into stored ones:
// extract, generate and submit, wait, download and integrate, clean up.
package maker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/Justype/simmaker/internal/events"
	"github.com/Justype/simmaker/internal/generator"
	"github.com/Justype/simmaker/internal/jobs"
	"github.com/Justype/simmaker/internal/remote"
	"github.com/Justype/simmaker/internal/scheduler"
	"github.com/Justype/simmaker/internal/simulation"
	"github.com/Justype/simmaker/internal/utils"
)

// DefaultPollInterval is the delay between two job state polls
const DefaultPollInterval = 500 * time.Millisecond

// Manager is the repository of known simulations
type Manager interface {
	BatchExists(sims []*simulation.Simulation, onProgress func()) ([]*simulation.Simulation, error)
	BatchIntegrate(sims []*simulation.Simulation, onProgress func()) (int, error)
	Close() error
}

// Generator renders the scripts of queued simulations
type Generator interface {
	Enqueue(sims ...*simulation.Simulation)
	Materialize(dir string, recipe *generator.Recipe, emptyDest bool) ([][]generator.Script, error)
	ClearQueue()
}

// RemoteFolder is where scripts run and outputs are produced
type RemoteFolder interface {
	Open(ctx context.Context) error
	Close() error
	UploadDir(ctx context.Context, local string, opts remote.UploadOptions) (string, error)
	DownloadDir(ctx context.Context, remotePath, local string, deleteExisting bool) error
	Execute(ctx context.Context, remotePath string) (io.Reader, error)
	DeleteRemote(ctx context.Context, paths []string) error
	ReadFile(ctx context.Context, remotePath string) ([]byte, error)
}

// JobsSource follows the states of the submitted jobs
type JobsSource interface {
	Add(ids ...string)
	Bind(ch jobs.StateChannel)
	Refresh(ctx context.Context) error
	ByState() map[jobs.State][]string
	Clear()
}

// Options tunes a Maker
type Options struct {
	MaxCorrupted int           // Corrupted rounds tolerated, <0 = unlimited
	MaxFailures  int           // Failed rounds tolerated, <0 = unlimited
	PollInterval time.Duration // 0 = DefaultPollInterval
	TempDir      string        // Parent of the local scratch directories, "" = os.TempDir()

	// StateChannel overrides the jobs states file of the recipe
	StateChannel jobs.StateChannel
}

// DefaultOptions returns the options of a Maker built without any.
func DefaultOptions() Options {
	return Options{MaxCorrupted: -1, MaxFailures: 0, PollInterval: DefaultPollInterval}
}

// Deps are the collaborators of a Maker. Bus may be nil.
type Deps struct {
	Manager   Manager
	Generator Generator
	Remote    RemoteFolder
	Jobs      JobsSource
	Bus       *events.Bus
}

// Counters of the last run
type Counters struct {
	Rounds      int
	Failures    int
	Corruptions int
}

// Maker runs simulations until the repository knows them all or a threshold is exhausted.
// A Maker must not run concurrently with itself.
type Maker struct {
	deps     Deps
	opts     Options
	counters Counters

	remoteOpened bool
	closed       bool
}

// New creates a Maker.
func New(deps Deps, opts Options) *Maker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if deps.Jobs == nil {
		deps.Jobs = jobs.NewManager()
	}
	return &Maker{deps: deps, opts: opts}
}

// Counters returns the counters of the last run.
func (m *Maker) Counters() Counters {
	return m.counters
}

func (m *Maker) emit(ev events.Event, payload any) {
	if m.deps.Bus == nil {
		return
	}
	// Only catalogue events are published here
	_ = m.deps.Bus.Publish(ev, payload)
}

// Run makes every target known to the repository and returns those still unknown
// once a threshold is exhausted. The recipe basedir is overwritten each round.
// On error, the unknown simulations of the last extract are returned with it.
func (m *Maker) Run(ctx context.Context, targets []*simulation.Simulation, recipe *generator.Recipe) ([]*simulation.Simulation, error) {
	m.emit(events.RunStart, events.RunStartPayload{Targets: targets})

	coords := ParseScriptCoords(recipe.Launch)
	m.counters = Counters{}

	var unknown []*simulation.Simulation
	for m.withinThresholds() {
		var err error
		unknown, err = m.extract(targets)
		if err != nil {
			return unknown, fmt.Errorf("extract: %w", err)
		}
		if len(unknown) == 0 {
			break
		}

		if err := m.round(ctx, unknown, recipe, coords); err != nil {
			return unknown, err
		}
	}

	m.emit(events.RunEnd, events.RunEndPayload{
		Unknown:     unknown,
		Rounds:      m.counters.Rounds,
		Failures:    m.counters.Failures,
		Corruptions: m.counters.Corruptions,
	})
	return unknown, nil
}

// withinThresholds is inclusive: a threshold of 0 still allows one failed round.
func (m *Maker) withinThresholds() bool {
	corrupted := m.opts.MaxCorrupted < 0 || m.counters.Corruptions <= m.opts.MaxCorrupted
	failed := m.opts.MaxFailures < 0 || m.counters.Failures <= m.opts.MaxFailures
	return corrupted && failed
}

func (m *Maker) round(ctx context.Context, unknown []*simulation.Simulation, recipe *generator.Recipe, coords ScriptCoords) error {
	m.counters.Rounds++

	// The round binds output folders; the targets stay untouched
	batch := make([]*simulation.Simulation, len(unknown))
	for i, sim := range unknown {
		batch[i] = sim.Clone()
	}

	jobIDs, err := m.generate(ctx, batch, recipe, coords)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	success, err := m.wait(ctx, jobIDs, recipe)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	if !success {
		m.counters.Failures++
	}

	rejected, err := m.download(ctx, batch)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if rejected > 0 {
		m.counters.Corruptions++
	}

	m.emit(events.DeleteScripts, events.DeleteScriptsPayload{Basedir: recipe.Basedir})
	if err := m.deps.Remote.DeleteRemote(ctx, []string{recipe.Basedir}); err != nil {
		return fmt.Errorf("delete scripts: %w", err)
	}
	return nil
}

func (m *Maker) extract(targets []*simulation.Simulation) ([]*simulation.Simulation, error) {
	m.emit(events.ExtractStart, events.ExtractStartPayload{Simulations: targets})

	unknown, err := m.deps.Manager.BatchExists(targets, func() {
		m.emit(events.ExtractProgress, nil)
	})
	if err != nil {
		return nil, err
	}

	m.emit(events.ExtractEnd, events.ExtractEndPayload{Unknown: unknown})
	return unknown, nil
}

// openRemote connects the remote folder on first use.
func (m *Maker) openRemote(ctx context.Context) error {
	if m.remoteOpened {
		return nil
	}
	m.emit(events.RemoteOpenStart, nil)
	if err := m.deps.Remote.Open(ctx); err != nil {
		return fmt.Errorf("failed to open remote folder: %w", err)
	}
	m.remoteOpened = true
	// a reopened maker owns resources again
	m.closed = false
	m.emit(events.RemoteOpenEnd, nil)
	return nil
}

func (m *Maker) generate(ctx context.Context, batch []*simulation.Simulation, recipe *generator.Recipe, coords ScriptCoords) ([]string, error) {
	m.emit(events.GenerateStart, events.GenerateStartPayload{Round: m.counters.Rounds, Simulations: batch})

	if err := m.openRemote(ctx); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(m.opts.TempDir, "simulations-scripts_")
	if err != nil {
		return nil, fmt.Errorf("failed to create scripts directory: %w", err)
	}
	defer os.RemoveAll(dir)

	basedir, err := m.deps.Remote.UploadDir(ctx, dir, remote.UploadOptions{})
	if err != nil {
		return nil, err
	}
	recipe.Basedir = basedir

	m.deps.Generator.Enqueue(batch...)
	scripts, err := m.deps.Generator.Materialize(dir, recipe, true)
	m.deps.Generator.ClearQueue()
	if err != nil {
		return nil, err
	}

	script, err := selectScript(scripts, recipe.Skeletons(), coords)
	if err != nil {
		return nil, err
	}
	if err := utils.MakeExecutable(script.LocalPath); err != nil {
		return nil, err
	}

	if _, err := m.deps.Remote.UploadDir(ctx, dir, remote.UploadOptions{Dest: basedir, DeleteExisting: true, EmptyDest: true}); err != nil {
		return nil, err
	}

	out, err := m.deps.Remote.Execute(ctx, script.FinalPath)
	if err != nil {
		return nil, err
	}
	stdout, err := io.ReadAll(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read output of %s: %w", script.FinalPath, err)
	}
	jobIDs := scheduler.ParseJobIDs(string(stdout))

	m.emit(events.GenerateEnd, events.GenerateEndPayload{Basedir: basedir, Script: script.FinalPath, JobIDs: jobIDs})
	return jobIDs, nil
}

// selectScript finds the script at coords among the generated groups,
// whose order follows the skeleton names.
func selectScript(scripts [][]generator.Script, skeletons []string, coords ScriptCoords) (generator.Script, error) {
	var candidates []int
	for i, name := range skeletons {
		if name == coords.Name {
			candidates = append(candidates, i)
		}
	}

	group, ok := at(candidates, coords.Skeleton)
	if !ok || group >= len(scripts) {
		return generator.Script{}, NewScriptNotFoundError(coords)
	}
	script, ok := at(scripts[group], coords.Script)
	if !ok {
		return generator.Script{}, NewScriptNotFoundError(coords)
	}
	return script, nil
}

// at indexes s, negative indices counting from the end.
func at[T any](s []T, i int) (T, bool) {
	if i < 0 {
		i += len(s)
	}
	if i < 0 || i >= len(s) {
		var zero T
		return zero, false
	}
	return s[i], true
}

// wait blocks until every job is terminal and reports whether none failed.
func (m *Maker) wait(ctx context.Context, jobIDs []string, recipe *generator.Recipe) (bool, error) {
	m.emit(events.WaitStart, events.WaitStartPayload{JobIDs: jobIDs})
	start := time.Now()

	channel := m.opts.StateChannel
	if channel == nil {
		channel = jobs.NewFileChannel(m.deps.Remote, recipe.JobsStatesPath())
	}

	js := m.deps.Jobs
	js.Add(jobIDs...)
	js.Bind(channel)
	defer js.Clear()

	wanted := make(map[string]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		wanted[id] = struct{}{}
	}

	var previous map[jobs.State][]string
	var byState map[jobs.State][]string
	for {
		if err := js.Refresh(ctx); err != nil {
			return false, err
		}
		byState = js.ByState()

		if previous == nil || !maps.EqualFunc(byState, previous, slices.Equal[[]string]) {
			m.emit(events.WaitProgress, events.WaitProgressPayload{ByState: byState})
			if sameIDs(wanted, byState[jobs.Succeed], byState[jobs.Failed]) {
				break
			}
		}
		previous = byState

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(m.opts.PollInterval):
		}
	}

	success := len(byState[jobs.Failed]) == 0
	m.emit(events.WaitEnd, events.WaitEndPayload{Success: success, Elapsed: time.Since(start)})
	return success, nil
}

// sameIDs reports whether the union of the groups is exactly the wanted set.
func sameIDs(wanted map[string]struct{}, groups ...[]string) bool {
	seen := make(map[string]struct{}, len(wanted))
	for _, group := range groups {
		for _, id := range group {
			if _, ok := wanted[id]; !ok {
				return false
			}
			seen[id] = struct{}{}
		}
	}
	return len(seen) == len(wanted)
}

// download fetches the output folder of each simulation and hands the batch
// to the repository. It returns the number of rejected simulations.
func (m *Maker) download(ctx context.Context, batch []*simulation.Simulation) (int, error) {
	m.emit(events.DownloadStart, events.DownloadStartPayload{Simulations: batch})

	var scratch []string
	defer func() {
		// Accepted simulations were moved out, rejected ones are left behind
		for _, dir := range scratch {
			os.RemoveAll(dir)
		}
	}()

	missing := 0
	for _, sim := range batch {
		dir, err := os.MkdirTemp(m.opts.TempDir, "simulation_")
		if err != nil {
			return 0, fmt.Errorf("failed to create simulation directory: %w", err)
		}
		scratch = append(scratch, dir)

		if output := sim.OutputPath(); output == "" {
			missing++
		} else if err := m.deps.Remote.DownloadDir(ctx, output, dir, true); err != nil {
			if !remote.IsRemotePathNotFound(err) {
				return 0, err
			}
			missing++
		}

		sim.SetFolder(dir)
		m.emit(events.DownloadProgress, nil)
	}
	m.emit(events.DownloadEnd, events.DownloadEndPayload{Missing: missing})

	m.emit(events.AdditionStart, events.AdditionStartPayload{Simulations: batch})
	rejected, err := m.deps.Manager.BatchIntegrate(batch, func() {
		m.emit(events.AdditionProgress, nil)
	})
	if err != nil {
		return rejected, fmt.Errorf("addition: %w", err)
	}
	m.emit(events.AdditionEnd, events.AdditionEndPayload{Rejected: rejected})
	return rejected, nil
}

// Close releases the repository and the remote connection. It can be called
// more than once, and before any run.
func (m *Maker) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	m.emit(events.CloseStart, nil)
	var errs []error
	if m.deps.Manager != nil {
		if err := m.deps.Manager.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close manager: %w", err))
		}
	}
	if m.remoteOpened {
		if err := m.deps.Remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close remote folder: %w", err))
		}
		m.remoteOpened = false
	}
	m.emit(events.CloseEnd, nil)
	return errors.Join(errs...)
}
