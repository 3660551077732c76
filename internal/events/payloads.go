package events

import (
	"time"

	"github.com/Justype/simmaker/internal/jobs"
	"github.com/Justype/simmaker/internal/simulation"
)

// Payloads published with each event. Progress events carry no data.

type RunStartPayload struct {
	Targets []*simulation.Simulation
}

type RunEndPayload struct {
	Unknown     []*simulation.Simulation
	Rounds      int
	Failures    int
	Corruptions int
}

type ExtractStartPayload struct {
	Simulations []*simulation.Simulation
}

type ExtractEndPayload struct {
	Unknown []*simulation.Simulation
}

type GenerateStartPayload struct {
	Round       int
	Simulations []*simulation.Simulation
}

type GenerateEndPayload struct {
	Basedir string
	Script  string // Remote path of the launched script
	JobIDs  []string
}

type WaitStartPayload struct {
	JobIDs []string
}

type WaitProgressPayload struct {
	ByState map[jobs.State][]string
}

type WaitEndPayload struct {
	Success bool
	Elapsed time.Duration
}

type DownloadStartPayload struct {
	Simulations []*simulation.Simulation
}

type DownloadEndPayload struct {
	Missing int // Simulations without remote output
}

type AdditionStartPayload struct {
	Simulations []*simulation.Simulation
}

type AdditionEndPayload struct {
	Rejected int
}

type DeleteScriptsPayload struct {
	Basedir string
}
