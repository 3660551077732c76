package ui

import (
	"testing"

	"github.com/Justype/simmaker/internal/events"
	"github.com/Justype/simmaker/internal/jobs"
	"github.com/Justype/simmaker/internal/utils"
)

func TestFormatJobStates(t *testing.T) {
	got := FormatJobStates(map[jobs.State][]string{
		jobs.Running: {"1", "2"},
		jobs.Failed:  {"3"},
	})
	want := "waiting: 0, running: 2, succeed: 0, failed: 1"
	if got != want {
		t.Errorf("FormatJobStates = %q; want %q", got, want)
	}
}

func TestMakerUIProgress(t *testing.T) {
	utils.QuietMode = true
	defer func() { utils.QuietMode = false }()

	bus := events.NewBus()
	ui := NewMakerUI(bus)

	bus.Publish(events.DownloadStart, events.DownloadStartPayload{})
	bus.Publish(events.DownloadProgress, nil)
	bus.Publish(events.DownloadProgress, nil)

	if ui.phase != "Downloading" || ui.done != 2 {
		t.Errorf("progress = %s %d; want Downloading 2", ui.phase, ui.done)
	}

	bus.Publish(events.AdditionStart, events.AdditionStartPayload{})
	if ui.phase != "Adding" || ui.done != 0 {
		t.Errorf("progress after addition-start = %s %d; want Adding 0", ui.phase, ui.done)
	}
}
