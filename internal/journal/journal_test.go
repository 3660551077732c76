package journal

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Justype/simmaker/internal/events"
	"github.com/Justype/simmaker/internal/jobs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestJournalRecordsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	j := NewWithLogger(zap.New(core), "run-1")

	bus := events.NewBus()
	j.Attach(bus)

	bus.Publish(events.WaitStart, events.WaitStartPayload{JobIDs: []string{"1", "2"}})
	bus.Publish(events.ExtractProgress, nil) // debug, filtered out
	bus.Publish(events.WaitProgress, events.WaitProgressPayload{ByState: map[jobs.State][]string{
		jobs.Running: {"1"},
		jobs.Succeed: {"2"},
	}})
	bus.Publish(events.WaitEnd, events.WaitEndPayload{Success: true, Elapsed: time.Second})

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("recorded %d entries; want 3", len(entries))
	}

	progress := entries[1].ContextMap()
	if progress["event"] != "wait-progress" || progress["run"] != "run-1" {
		t.Errorf("progress entry context = %v", progress)
	}
	if progress["running"] != int64(1) || progress["succeed"] != int64(1) || progress["failed"] != int64(0) {
		t.Errorf("progress counts = %v", progress)
	}

	end := entries[2].ContextMap()
	if end["success"] != true {
		t.Errorf("wait-end success = %v; want true", end["success"])
	}
}

func TestOpenWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	bus := events.NewBus()
	j.Attach(bus)
	bus.Publish(events.DeleteScripts, events.DeleteScriptsPayload{Basedir: "/remote/scripts"})
	if err := j.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !strings.HasPrefix(j.Path, dir) || !strings.Contains(j.Path, j.RunID) {
		t.Errorf("journal path %s does not hold the run id %s", j.Path, j.RunID)
	}
	data, err := os.ReadFile(j.Path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"event":"delete-scripts"`, `"basedir":"/remote/scripts"`, `"run":"` + j.RunID + `"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("journal misses %s:\n%s", want, data)
		}
	}
}
