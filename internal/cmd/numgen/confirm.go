package numgen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrAborted is returned when the user declines to overwrite the output.
	ErrAborted = errors.New("aborted")
	// ErrNotInteractive is returned when confirmation is needed but stdin is
	// not a terminal.
	ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal, use -yes")
)

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// TerminalConfirmer prompts on In when it is a terminal.
type TerminalConfirmer struct {
	In  *os.File
	Out io.Writer
}

func (c TerminalConfirmer) Confirm(question string) (bool, error) {
	if c.In == nil || !term.IsTerminal(int(c.In.Fd())) {
		return false, ErrNotInteractive
	}

	fmt.Fprintf(c.Out, "%s [y/N] ", question)
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// PrepareOutput opens path for writing, truncating it. A non-empty file is
// only overwritten when yes is set or confirm accepts.
func PrepareOutput(path string, yes bool, confirm Confirmer) (*os.File, error) {
	info, ok, err := exists(path)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}

	if ok {
		if info.IsDir() {
			return nil, fmt.Errorf("output %s is a directory", path)
		}
		if info.Size() > 0 && !yes {
			if confirm == nil {
				return nil, ErrNotInteractive
			}
			accepted, err := confirm.Confirm(fmt.Sprintf("File %s is not empty. Do you want to overwrite the file?", path))
			if err != nil {
				return nil, err
			}
			if !accepted {
				return nil, ErrAborted
			}
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return f, nil
}

func exists(path string) (os.FileInfo, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}
