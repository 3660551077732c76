package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// DebugMode shows PrintDebug lines
	DebugMode = false

	// QuietMode hides everything but errors, warnings and debug lines
	QuietMode = false
)

// Every console line starts with this tag
const consolePrefix = "[SMK]"

// Overridden in tests
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	paintRed     = color.New(color.FgRed).SprintFunc()
	paintGreen   = color.New(color.FgGreen).SprintFunc()
	paintYellow  = color.New(color.FgYellow).SprintFunc()
	paintMagenta = color.New(color.FgMagenta).SprintFunc()
	paintCyan    = color.New(color.FgCyan).SprintFunc()
	paintGray    = color.New(color.FgWhite).SprintFunc()
	paintPath    = color.New(color.FgBlue, color.Bold).SprintFunc()
	paintTitle   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// StyleSuccess colors a positive outcome.
func StyleSuccess(msg string) string { return paintGreen(msg) }

// StyleWarning colors something the user should look at.
func StyleWarning(msg string) string { return paintYellow(msg) }

// StyleInfo colors a status label.
func StyleInfo(msg string) string { return paintMagenta(msg) }

func StyleCommand(cmd string) string { return paintGray(cmd) }

func StyleAction(act string) string { return paintYellow(act) }

func StyleTitle(title string) string { return paintTitle(title) }

// StyleNumber colors counts and job ids.
func StyleNumber(num any) string { return paintMagenta(fmt.Sprint(num)) }

// StylePath colors local and remote paths.
func StylePath(path string) string { return paintPath(path) }

// StyleName colors identifiers such as setting names and redis keys.
func StyleName(name string) string { return paintYellow(name) }

// severity describes how one kind of console line is tagged and routed.
type severity struct {
	tag       string
	paint     func(a ...any) string
	toStderr  bool
	quietable bool
}

var (
	sevMessage = severity{quietable: true}
	sevSuccess = severity{tag: "[PASS]", paint: paintGreen, quietable: true}
	sevError   = severity{tag: "[ERR]", paint: paintRed, toStderr: true}
	sevWarning = severity{tag: "[WARN]", paint: paintYellow, toStderr: true}
	sevHint    = severity{tag: "[HINT]", paint: paintCyan, quietable: true}
	sevNote    = severity{tag: "[NOTE]", paint: paintMagenta, quietable: true}
	sevDebug   = severity{tag: "[DBG]", paint: paintGray, toStderr: true}
)

func (s severity) printf(format string, a ...any) {
	if s.quietable && QuietMode {
		return
	}
	w := stdout
	if s.toStderr {
		w = stderr
	}
	head := consolePrefix
	if s.tag != "" {
		// tags are padded so messages line up
		head += s.paint(fmt.Sprintf("%-6s", s.tag))
	}
	fmt.Fprintf(w, "%s %s\n", head, fmt.Sprintf(format, a...))
}

// PrintMessage prints an untagged line: "[SMK] 3 simulations to generate".
func PrintMessage(format string, a ...any) { sevMessage.printf(format, a...) }

// PrintSuccess prints "[SMK][PASS] ...".
func PrintSuccess(format string, a ...any) { sevSuccess.printf(format, a...) }

// PrintError prints "[SMK][ERR] ..." to stderr, even in quiet mode.
func PrintError(format string, a ...any) { sevError.printf(format, a...) }

// PrintWarning prints "[SMK][WARN] ..." to stderr, even in quiet mode.
func PrintWarning(format string, a ...any) { sevWarning.printf(format, a...) }

func PrintHint(format string, a ...any) { sevHint.printf(format, a...) }

func PrintNote(format string, a ...any) { sevNote.printf(format, a...) }

// PrintDebug prints "[SMK][DBG] ..." to stderr when DebugMode is set.
func PrintDebug(format string, a ...any) {
	if DebugMode {
		sevDebug.printf(format, a...)
	}
}

// PrintStatus keeps rewriting a single line in a terminal. Elsewhere every
// status is a line of its own.
func PrintStatus(format string, a ...any) {
	if QuietMode {
		return
	}
	msg := fmt.Sprintf(format, a...)
	if !IsInteractiveShell() {
		fmt.Fprintf(stdout, "%s %s\n", consolePrefix, msg)
		return
	}
	fmt.Fprintf(stdout, "\r\033[K%s %s", consolePrefix, msg)
}

// EndStatus moves past the line PrintStatus kept rewriting.
func EndStatus() {
	if !QuietMode && IsInteractiveShell() {
		fmt.Fprintln(stdout)
	}
}

// IsInteractiveShell reports whether stdout is a terminal.
func IsInteractiveShell() bool {
	info, err := os.Stdout.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
