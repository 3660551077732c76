package maker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Justype/simmaker/internal/events"
	"github.com/Justype/simmaker/internal/generator"
	"github.com/Justype/simmaker/internal/jobs"
	"github.com/Justype/simmaker/internal/remote"
	"github.com/Justype/simmaker/internal/simulation"
	"github.com/google/go-cmp/cmp"
)

type fakeManager struct {
	known       map[string]bool
	reject      func(call int, sim *simulation.Simulation) bool
	existsCalls []int
	integrated  []int
	closed      int
}

func newFakeManager() *fakeManager {
	return &fakeManager{known: make(map[string]bool)}
}

func (f *fakeManager) BatchExists(sims []*simulation.Simulation, onProgress func()) ([]*simulation.Simulation, error) {
	f.existsCalls = append(f.existsCalls, len(sims))
	var unknown []*simulation.Simulation
	for _, sim := range sims {
		if !f.known[sim.CommandLine()] {
			unknown = append(unknown, sim)
		}
		onProgress()
	}
	return unknown, nil
}

func (f *fakeManager) BatchIntegrate(sims []*simulation.Simulation, onProgress func()) (int, error) {
	call := len(f.integrated)
	f.integrated = append(f.integrated, len(sims))
	rejected := 0
	for _, sim := range sims {
		if f.reject != nil && f.reject(call, sim) {
			rejected++
		} else {
			f.known[sim.CommandLine()] = true
		}
		onProgress()
	}
	return rejected, nil
}

func (f *fakeManager) Close() error {
	f.closed++
	return nil
}

type fakeGenerator struct {
	queue []*simulation.Simulation
}

func (f *fakeGenerator) Enqueue(sims ...*simulation.Simulation) {
	f.queue = append(f.queue, sims...)
}

func (f *fakeGenerator) ClearQueue() {
	f.queue = nil
}

func (f *fakeGenerator) Materialize(dir string, recipe *generator.Recipe, emptyDest bool) ([][]generator.Script, error) {
	for i, sim := range f.queue {
		if err := sim.Set(simulation.OutputSetting, path.Join(recipe.Basedir, "simulations", fmt.Sprint(i))); err != nil {
			return nil, err
		}
	}
	var scripts [][]generator.Script
	for _, name := range recipe.Skeletons() {
		local := filepath.Join(dir, name)
		if err := os.WriteFile(local, []byte("#!/bin/sh\n"), 0640); err != nil {
			return nil, err
		}
		scripts = append(scripts, []generator.Script{{LocalPath: local, FinalPath: path.Join(recipe.Basedir, name)}})
	}
	return scripts, nil
}

type fakeRemote struct {
	opened    int
	closed    int
	uploads   []remote.UploadOptions
	executed  []string
	stdout    string
	missing   map[string]bool
	deleted   []string
	execModes []os.FileMode
	scriptDir string
}

func (f *fakeRemote) Open(ctx context.Context) error {
	f.opened++
	return nil
}

func (f *fakeRemote) Close() error {
	f.closed++
	return nil
}

func (f *fakeRemote) UploadDir(ctx context.Context, local string, opts remote.UploadOptions) (string, error) {
	f.uploads = append(f.uploads, opts)
	f.scriptDir = local
	if opts.Dest != "" {
		return opts.Dest, nil
	}
	return path.Join("/remote", filepath.Base(local)), nil
}

func (f *fakeRemote) DownloadDir(ctx context.Context, remotePath, local string, deleteExisting bool) error {
	if f.missing[path.Base(remotePath)] {
		return remote.NewRemotePathNotFoundError(remotePath)
	}
	return os.WriteFile(filepath.Join(local, "result.txt"), []byte("ok"), 0644)
}

func (f *fakeRemote) Execute(ctx context.Context, remotePath string) (io.Reader, error) {
	f.executed = append(f.executed, remotePath)
	if info, err := os.Stat(filepath.Join(f.scriptDir, path.Base(remotePath))); err == nil {
		f.execModes = append(f.execModes, info.Mode().Perm())
	}
	return strings.NewReader(f.stdout), nil
}

func (f *fakeRemote) DeleteRemote(ctx context.Context, paths []string) error {
	f.deleted = append(f.deleted, paths...)
	return nil
}

func (f *fakeRemote) ReadFile(ctx context.Context, remotePath string) ([]byte, error) {
	return nil, remote.NewRemotePathNotFoundError(remotePath)
}

// fakeChannel reports every listed job in the same state at each poll
type fakeChannel struct {
	ids   []string
	state jobs.State
	polls int
}

func (f *fakeChannel) Poll(ctx context.Context) ([]jobs.Update, error) {
	f.polls++
	var updates []jobs.Update
	for _, id := range f.ids {
		updates = append(updates, jobs.Update{ID: id, State: f.state})
	}
	return updates, nil
}

type fixture struct {
	manager   *fakeManager
	generator *fakeGenerator
	remote    *fakeRemote
	channel   *fakeChannel
	bus       *events.Bus
	events    []events.Event
	targets   []*simulation.Simulation
	recipe    *generator.Recipe
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	conf := simulation.NewFolder(t.TempDir(), simulation.FolderSettings{
		Exec: "./sim",
		GlobalSettings: []simulation.GlobalSettingDeclaration{
			{Name: "folder", Default: ""},
		},
		Settings: []simulation.SetDeclaration{{
			Set:      "main",
			Required: true,
			Settings: []simulation.SettingDeclaration{{Name: "n", Default: 0}},
		}},
	})

	f := &fixture{
		manager:   newFakeManager(),
		generator: &fakeGenerator{},
		remote:    &fakeRemote{stdout: "101\n102\n", missing: map[string]bool{}},
		channel:   &fakeChannel{ids: []string{"101", "102"}, state: jobs.Succeed},
		bus:       events.NewBus(),
		recipe: &generator.Recipe{
			Launch:              "launch.sh",
			SubgroupsSkeletons:  []string{"job.sh"},
			WholegroupSkeletons: []string{"launch.sh"},
			JobsStatesFilename:  "jobs.txt",
		},
	}
	f.bus.SubscribeAll(func(ev events.Event, payload any) {
		f.events = append(f.events, ev)
	})

	for i := 0; i < n; i++ {
		sim, err := simulation.New(conf, simulation.UserSettings{
			Sets: []simulation.UserValueSet{{Set: "main", Settings: map[string]any{"n": i}}},
		})
		if err != nil {
			t.Fatal(err)
		}
		f.targets = append(f.targets, sim)
	}
	return f
}

func (f *fixture) maker(t *testing.T, opts Options) *Maker {
	opts.PollInterval = time.Millisecond
	opts.TempDir = t.TempDir()
	opts.StateChannel = f.channel
	return New(Deps{
		Manager:   f.manager,
		Generator: f.generator,
		Remote:    f.remote,
		Bus:       f.bus,
	}, opts)
}

func TestRunAllSucceed(t *testing.T) {
	f := newFixture(t, 3)
	m := f.maker(t, DefaultOptions())

	unknown, err := m.Run(context.Background(), f.targets, f.recipe)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %d simulations; want 0", len(unknown))
	}
	if diff := cmp.Diff(Counters{Rounds: 1}, m.Counters()); diff != "" {
		t.Errorf("Counters() mismatch (-want +got):\n%s", diff)
	}
	if len(f.manager.known) != 3 {
		t.Errorf("manager knows %d simulations; want 3", len(f.manager.known))
	}

	basedir := f.recipe.Basedir
	if diff := cmp.Diff([]string{path.Join(basedir, "launch.sh")}, f.remote.executed); diff != "" {
		t.Errorf("executed scripts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{basedir}, f.remote.deleted); diff != "" {
		t.Errorf("deleted paths mismatch (-want +got):\n%s", diff)
	}

	wantUploads := []remote.UploadOptions{{}, {Dest: basedir, DeleteExisting: true, EmptyDest: true}}
	if diff := cmp.Diff(wantUploads, f.remote.uploads); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]os.FileMode{0751}, f.remote.execModes); diff != "" {
		t.Errorf("launched script mode mismatch (-want +got):\n%s", diff)
	}

	for _, sim := range f.targets {
		if sim.Folder() != "" || sim.OutputPath() != "" {
			t.Errorf("target %s was modified by the run", sim.CommandLine())
		}
	}
}

func TestRunEventOrder(t *testing.T) {
	f := newFixture(t, 2)
	m := f.maker(t, DefaultOptions())

	if _, err := m.Run(context.Background(), f.targets, f.recipe); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []events.Event{
		events.RunStart,
		events.ExtractStart, events.ExtractProgress, events.ExtractProgress, events.ExtractEnd,
		events.GenerateStart, events.RemoteOpenStart, events.RemoteOpenEnd, events.GenerateEnd,
		events.WaitStart, events.WaitProgress, events.WaitEnd,
		events.DownloadStart, events.DownloadProgress, events.DownloadProgress, events.DownloadEnd,
		events.AdditionStart, events.AdditionProgress, events.AdditionProgress, events.AdditionEnd,
		events.DeleteScripts,
		events.ExtractStart, events.ExtractProgress, events.ExtractProgress, events.ExtractEnd,
		events.RunEnd,
	}
	if diff := cmp.Diff(want, f.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMaxFailuresZeroAllowsOneRound(t *testing.T) {
	f := newFixture(t, 2)
	f.channel.state = jobs.Failed
	f.manager.reject = func(int, *simulation.Simulation) bool { return true }
	m := f.maker(t, DefaultOptions())

	unknown, err := m.Run(context.Background(), f.targets, f.recipe)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(unknown) != 2 {
		t.Errorf("unknown = %d simulations; want 2", len(unknown))
	}
	if diff := cmp.Diff(Counters{Rounds: 1, Failures: 1, Corruptions: 1}, m.Counters()); diff != "" {
		t.Errorf("Counters() mismatch (-want +got):\n%s", diff)
	}
}

func TestRunUnlimitedFailures(t *testing.T) {
	f := newFixture(t, 1)
	f.channel.state = jobs.Failed
	f.manager.reject = func(int, *simulation.Simulation) bool { return true }
	m := f.maker(t, Options{MaxFailures: -1, MaxCorrupted: 3})

	unknown, err := m.Run(context.Background(), f.targets, f.recipe)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(unknown) != 1 {
		t.Errorf("unknown = %d simulations; want 1", len(unknown))
	}
	// Only the corruption threshold stops the loop
	if diff := cmp.Diff(Counters{Rounds: 4, Failures: 4, Corruptions: 4}, m.Counters()); diff != "" {
		t.Errorf("Counters() mismatch (-want +got):\n%s", diff)
	}
}

func TestRunExtractsFullTargetList(t *testing.T) {
	f := newFixture(t, 3)
	first := f.targets[0].CommandLine()
	f.manager.reject = func(call int, sim *simulation.Simulation) bool {
		return call == 0 && sim.CommandLine() == first
	}
	m := f.maker(t, DefaultOptions())

	unknown, err := m.Run(context.Background(), f.targets, f.recipe)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %d simulations; want 0", len(unknown))
	}
	if diff := cmp.Diff([]int{3, 3, 3}, f.manager.existsCalls); diff != "" {
		t.Errorf("BatchExists sizes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 1}, f.manager.integrated); diff != "" {
		t.Errorf("BatchIntegrate sizes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Counters{Rounds: 2, Corruptions: 1}, m.Counters()); diff != "" {
		t.Errorf("Counters() mismatch (-want +got):\n%s", diff)
	}
}

func TestRunNothingToDo(t *testing.T) {
	f := newFixture(t, 2)
	for _, sim := range f.targets {
		f.manager.known[sim.CommandLine()] = true
	}
	m := f.maker(t, DefaultOptions())

	unknown, err := m.Run(context.Background(), f.targets, f.recipe)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(unknown) != 0 || m.Counters().Rounds != 0 {
		t.Errorf("Run did %d rounds and left %d unknown; want 0 and 0", m.Counters().Rounds, len(unknown))
	}
	if f.remote.opened != 0 {
		t.Errorf("remote opened %d times; want 0", f.remote.opened)
	}
}

func TestRunScriptNotFound(t *testing.T) {
	f := newFixture(t, 2)
	f.recipe.Launch = "launch.sh:0:3"
	m := f.maker(t, DefaultOptions())

	unknown, err := m.Run(context.Background(), f.targets, f.recipe)
	if !IsScriptNotFound(err) {
		t.Fatalf("Run error = %v; want ScriptNotFoundError", err)
	}
	var notFound *ScriptNotFoundError
	if !errors.As(err, &notFound) || notFound.Coords != (ScriptCoords{Name: "launch.sh", Skeleton: 0, Script: 3}) {
		t.Errorf("error coords = %+v", notFound)
	}
	if len(unknown) != 2 {
		t.Errorf("unknown = %d simulations; want 2", len(unknown))
	}
	if len(f.remote.executed) != 0 {
		t.Errorf("a script was executed: %v", f.remote.executed)
	}
}

func TestRunMissingOutputIsNotFatal(t *testing.T) {
	f := newFixture(t, 2)
	f.remote.missing["0"] = true

	var missing int
	f.bus.Subscribe(events.DownloadEnd, func(payload any) {
		missing = payload.(events.DownloadEndPayload).Missing
	})
	m := f.maker(t, DefaultOptions())

	if _, err := m.Run(context.Background(), f.targets, f.recipe); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if missing != 1 {
		t.Errorf("missing outputs = %d; want 1", missing)
	}
	if f.manager.integrated[0] != 2 {
		t.Errorf("integrated batch = %d; want 2", f.manager.integrated[0])
	}
}

func TestRunWithoutJobs(t *testing.T) {
	f := newFixture(t, 1)
	f.remote.stdout = "\n"
	f.channel.ids = nil
	m := f.maker(t, DefaultOptions())

	if _, err := m.Run(context.Background(), f.targets, f.recipe); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.channel.polls != 1 {
		t.Errorf("polls = %d; want 1", f.channel.polls)
	}
	if m.Counters().Failures != 0 {
		t.Errorf("failures = %d; want 0", m.Counters().Failures)
	}
}

func TestRunWaitHonorsContext(t *testing.T) {
	f := newFixture(t, 1)
	f.channel.state = jobs.Running
	m := f.maker(t, DefaultOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	unknown, err := m.Run(ctx, f.targets, f.recipe)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run error = %v; want deadline exceeded", err)
	}
	if len(unknown) != 1 {
		t.Errorf("unknown = %d simulations; want 1", len(unknown))
	}
	if f.channel.polls < 2 {
		t.Errorf("polls = %d; want several", f.channel.polls)
	}
}

func TestWaitProgressOnlyOnChange(t *testing.T) {
	f := newFixture(t, 1)
	f.channel.state = jobs.Running
	m := f.maker(t, DefaultOptions())

	progress := 0
	f.bus.Subscribe(events.WaitProgress, func(any) { progress++ })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	m.Run(ctx, f.targets, f.recipe)

	if f.channel.polls < 2 {
		t.Fatalf("polls = %d; want several", f.channel.polls)
	}
	if progress != 1 {
		t.Errorf("wait-progress published %d times for an unchanged partition; want 1", progress)
	}
}

func TestCloseIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	m := f.maker(t, DefaultOptions())

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if f.remote.closed != 0 {
		t.Errorf("remote closed %d times; want 0 (never opened)", f.remote.closed)
	}
	if f.manager.closed != 1 {
		t.Errorf("manager closed %d times; want 1", f.manager.closed)
	}
	if diff := cmp.Diff([]events.Event{events.CloseStart, events.CloseEnd}, f.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseAfterRunClosesRemote(t *testing.T) {
	f := newFixture(t, 1)
	m := f.maker(t, DefaultOptions())

	if _, err := m.Run(context.Background(), f.targets, f.recipe); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	m.Close()
	m.Close()
	if f.remote.opened != 1 || f.remote.closed != 1 {
		t.Errorf("remote opened %d and closed %d times; want 1 and 1", f.remote.opened, f.remote.closed)
	}
}

func TestRunCloseRunClose(t *testing.T) {
	f := newFixture(t, 1)
	m := f.maker(t, DefaultOptions())

	for i := 0; i < 2; i++ {
		f.manager.known = make(map[string]bool)
		if _, err := m.Run(context.Background(), f.targets, f.recipe); err != nil {
			t.Fatalf("Run #%d failed: %v", i, err)
		}
		if err := m.Close(); err != nil {
			t.Fatalf("Close #%d failed: %v", i, err)
		}
	}
	if f.remote.opened != 2 || f.remote.closed != 2 {
		t.Errorf("remote opened %d and closed %d times; want 2 and 2", f.remote.opened, f.remote.closed)
	}
	if f.manager.closed != 2 {
		t.Errorf("manager closed %d times; want 2", f.manager.closed)
	}
}

func TestSelectScript(t *testing.T) {
	scripts := [][]generator.Script{
		{{FinalPath: "build-0"}, {FinalPath: "build-1"}},
		{{FinalPath: "launch"}},
		{{FinalPath: "other-build-0"}, {FinalPath: "other-build-1"}, {FinalPath: "other-build-2"}},
	}
	skeletons := []string{"build", "launch", "build"}

	cases := map[string]string{
		"build":       "other-build-2",
		"build:0":     "build-1",
		"build:0:0":   "build-0",
		"build:-2:-2": "build-0",
		"build:1:1":   "other-build-1",
		"launch":      "launch",
	}
	for launch, want := range cases {
		got, err := selectScript(scripts, skeletons, ParseScriptCoords(launch))
		if err != nil {
			t.Errorf("selectScript(%q) failed: %v", launch, err)
			continue
		}
		if got.FinalPath != want {
			t.Errorf("selectScript(%q) = %q; want %q", launch, got.FinalPath, want)
		}
	}

	for _, launch := range []string{"missing", "build:2", "build:-3", "build:0:2", "launch:0:-2"} {
		if _, err := selectScript(scripts, skeletons, ParseScriptCoords(launch)); !IsScriptNotFound(err) {
			t.Errorf("selectScript(%q) error = %v; want ScriptNotFoundError", launch, err)
		}
	}
}
