// Package ui prints the progress of a maker run on the console.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Justype/simmaker/internal/events"
	"github.com/Justype/simmaker/internal/jobs"
	"github.com/Justype/simmaker/internal/utils"
)

// MakerUI turns maker events into console lines.
type MakerUI struct {
	total int // Items expected by the current progress phase
	done  int
	phase string
}

// NewMakerUI subscribes a console UI to every event of bus.
func NewMakerUI(bus *events.Bus) *MakerUI {
	ui := &MakerUI{}
	bus.SubscribeAll(ui.handle)
	return ui
}

func (ui *MakerUI) startProgress(phase string, total int) {
	ui.phase = phase
	ui.total = total
	ui.done = 0
	ui.printProgress()
}

func (ui *MakerUI) step() {
	ui.done++
	ui.printProgress()
}

func (ui *MakerUI) printProgress() {
	utils.PrintStatus("%s %s/%s", utils.StyleAction(ui.phase), utils.StyleNumber(ui.done), utils.StyleNumber(ui.total))
}

func (ui *MakerUI) handle(ev events.Event, payload any) {
	switch ev {
	case events.RunStart:
		if p, ok := payload.(events.RunStartPayload); ok {
			utils.PrintMessage("Making %s", utils.Plural(len(p.Targets), "simulation", "simulations"))
		}

	case events.RemoteOpenStart:
		utils.PrintDebug("Opening remote folder")
	case events.RemoteOpenEnd:
		utils.PrintDebug("Remote folder opened")

	case events.ExtractStart:
		if p, ok := payload.(events.ExtractStartPayload); ok {
			ui.startProgress("Extracting", len(p.Simulations))
		}
	case events.DownloadStart:
		if p, ok := payload.(events.DownloadStartPayload); ok {
			ui.startProgress("Downloading", len(p.Simulations))
		}
	case events.AdditionStart:
		if p, ok := payload.(events.AdditionStartPayload); ok {
			ui.startProgress("Adding", len(p.Simulations))
		}
	case events.ExtractProgress, events.DownloadProgress, events.AdditionProgress:
		ui.step()

	case events.ExtractEnd:
		utils.EndStatus()
		if p, ok := payload.(events.ExtractEndPayload); ok && len(p.Unknown) > 0 {
			utils.PrintMessage("%s to generate", utils.Plural(len(p.Unknown), "simulation", "simulations"))
		}
	case events.DownloadEnd:
		utils.EndStatus()
		if p, ok := payload.(events.DownloadEndPayload); ok && p.Missing > 0 {
			utils.PrintWarning("%s produced no output", utils.Plural(p.Missing, "simulation", "simulations"))
		}
	case events.AdditionEnd:
		utils.EndStatus()
		if p, ok := payload.(events.AdditionEndPayload); ok && p.Rejected > 0 {
			utils.PrintWarning("%s rejected by the repository", utils.Plural(p.Rejected, "simulation", "simulations"))
		}

	case events.GenerateStart:
		if p, ok := payload.(events.GenerateStartPayload); ok {
			utils.PrintMessage("%s round %s", utils.StyleTitle("Starting"), utils.StyleNumber(p.Round))
		}
	case events.GenerateEnd:
		if p, ok := payload.(events.GenerateEndPayload); ok {
			utils.PrintDebug("Scripts sent to %s", utils.StylePath(p.Basedir))
			utils.PrintMessage("Launched %s, %s submitted", utils.StylePath(p.Script), utils.Plural(len(p.JobIDs), "job", "jobs"))
		}

	case events.WaitStart:
		utils.PrintMessage("Waiting for jobs")
	case events.WaitProgress:
		if p, ok := payload.(events.WaitProgressPayload); ok {
			utils.PrintStatus("%s", FormatJobStates(p.ByState))
		}
	case events.WaitEnd:
		utils.EndStatus()
		if p, ok := payload.(events.WaitEndPayload); ok {
			elapsed := p.Elapsed.Round(time.Second)
			if p.Success {
				utils.PrintSuccess("Jobs finished in %s", elapsed)
			} else {
				utils.PrintWarning("Some jobs failed (after %s)", elapsed)
			}
		}

	case events.DeleteScripts:
		if p, ok := payload.(events.DeleteScriptsPayload); ok {
			utils.PrintDebug("Deleting remote scripts %s", utils.StylePath(p.Basedir))
		}

	case events.RunEnd:
		if p, ok := payload.(events.RunEndPayload); ok {
			ui.printSummary(p)
		}

	case events.CloseStart:
		utils.PrintDebug("Closing maker")
	case events.CloseEnd:
		utils.PrintDebug("Maker closed")
	}
}

func (ui *MakerUI) printSummary(p events.RunEndPayload) {
	rounds := utils.Plural(p.Rounds, "round", "rounds")
	if len(p.Unknown) == 0 {
		utils.PrintSuccess("All simulations are available (%s)", rounds)
		return
	}
	utils.PrintError("%s could not be generated (%s, %s, %s)",
		utils.Plural(len(p.Unknown), "simulation", "simulations"),
		rounds,
		utils.Plural(p.Failures, "failure", "failures"),
		utils.Plural(p.Corruptions, "corruption", "corruptions"))
	for _, sim := range p.Unknown {
		utils.PrintMessage("  %s", utils.StyleCommand(sim.CommandLine()))
	}
}

// FormatJobStates renders the number of jobs in each state, in lifecycle order.
func FormatJobStates(byState map[jobs.State][]string) string {
	parts := make([]string, 0, len(byState))
	for _, s := range jobs.States() {
		parts = append(parts, fmt.Sprintf("%s: %d", s, len(byState[s])))
	}
	return strings.Join(parts, ", ")
}
