package utils

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

func captureConsole(t *testing.T) (out, errOut *strings.Builder) {
	t.Helper()
	out, errOut = &strings.Builder{}, &strings.Builder{}
	prevOut, prevErr := stdout, stderr
	prevColor, prevQuiet, prevDebug := color.NoColor, QuietMode, DebugMode
	stdout, stderr = out, errOut
	color.NoColor = true
	t.Cleanup(func() {
		stdout, stderr = prevOut, prevErr
		color.NoColor, QuietMode, DebugMode = prevColor, prevQuiet, prevDebug
	})
	return out, errOut
}

func TestConsoleRouting(t *testing.T) {
	out, errOut := captureConsole(t)
	DebugMode = true

	PrintMessage("%d simulations", 3)
	PrintSuccess("done")
	PrintError("boom")
	PrintWarning("careful")
	PrintDebug("details")

	wantOut := "[SMK] 3 simulations\n[SMK][PASS] done\n"
	if diff := cmp.Diff(wantOut, out.String()); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	wantErr := "[SMK][ERR]  boom\n[SMK][WARN] careful\n[SMK][DBG]  details\n"
	if diff := cmp.Diff(wantErr, errOut.String()); diff != "" {
		t.Errorf("stderr mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleQuietMode(t *testing.T) {
	out, errOut := captureConsole(t)
	QuietMode = true

	PrintMessage("hidden")
	PrintHint("hidden")
	PrintNote("hidden")
	PrintDebug("hidden without debug mode")
	PrintWarning("shown")

	if out.Len() != 0 {
		t.Errorf("quiet mode printed to stdout: %q", out.String())
	}
	if got := errOut.String(); got != "[SMK][WARN] shown\n" {
		t.Errorf("stderr = %q", got)
	}
}
