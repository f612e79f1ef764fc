package util

import (
	"os"

	"golang.org/x/term"
)

// defaultWidth is used when output is not a terminal
const defaultWidth = 100

// IsTerminal checks if the given file descriptor is a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// StdinIsTerminal reports whether prompts can be answered interactively
func StdinIsTerminal() bool {
	return IsTerminal(os.Stdin.Fd())
}

// StdoutIsTerminal reports whether change listings can be drawn as tables
func StdoutIsTerminal() bool {
	return IsTerminal(os.Stdout.Fd())
}

// TerminalWidth returns the width of stdout, or defaultWidth when it is
// not a terminal
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
