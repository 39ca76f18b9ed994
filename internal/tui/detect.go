package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode says whether wizards and prompts may take over the terminal.
type Mode int

const (
	// ModeNonInteractive covers CI pipelines, scripts, and piped input.
	ModeNonInteractive Mode = iota
	// ModeInteractive means a human is at the terminal.
	ModeInteractive
)

// DetectMode decides the interaction mode. Environment overrides win
// over terminal detection: TILEVAULT_NON_INTERACTIVE=1, any CI value,
// or NO_COLOR all force non-interactive. Otherwise both stdin and
// stdout must be terminals, since bubbletea needs to read keys and
// redraw the screen.
func DetectMode() Mode {
	switch {
	case os.Getenv("TILEVAULT_NON_INTERACTIVE") == "1",
		os.Getenv("CI") != "",
		os.Getenv("NO_COLOR") != "":
		return ModeNonInteractive
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsInteractive reports whether DetectMode returns ModeInteractive.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
