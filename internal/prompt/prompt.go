// Package prompt asks the operator questions on a line-oriented terminal
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/franz/tag-enforcer/internal/util"
)

// ErrNoAnswer is returned when input ends before a usable answer is read
var ErrNoAnswer = errors.New("no answer")

// Terminal implements render.Prompter over a reader/writer pair
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Terminal reading answers from in and writing questions to out
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Stdio returns a Terminal on stdin/stderr. ok is false when stdin is not
// interactive, in which case callers should run in quiet mode.
func Stdio() (t *Terminal, ok bool) {
	return New(os.Stdin, os.Stderr), util.StdinIsTerminal()
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question; anything but y/yes counts as no
func (t *Terminal) Confirm(message string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N] ", message)
	line, err := t.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// FreeText reads one line of text
func (t *Terminal) FreeText(message string) (string, error) {
	fmt.Fprint(t.out, message)
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ChooseOne lists numbered options and reads a selection. Invalid answers
// repeat the question.
func (t *Terminal) ChooseOne(message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%w: nothing to choose from", ErrNoAnswer)
	}

	fmt.Fprintln(t.out, message)
	for i, opt := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(t.out, "Choice [1-%d]: ", len(options))
		line, err := t.readLine()
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		fmt.Fprintf(t.out, "Please enter a number between 1 and %d\n", len(options))
	}
}
