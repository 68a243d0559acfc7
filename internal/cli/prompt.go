package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/ppiankov/casewise/internal/disambiguate"
)

// isTerminal reports whether f is attached to an interactive terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newAsker returns a confirm dialog on a terminal and a plain y/N line
// prompt everywhere else. in is shared with the caller so buffered input
// is not lost between prompts.
func newAsker(in *bufio.Reader, out io.Writer) disambiguate.Asker {
	if isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		return confirmAsker
	}
	return lineAsker(in, out)
}

func confirmAsker(q disambiguate.Question) (bool, error) {
	var yes bool
	err := huh.NewConfirm().
		Title(q.Text()).
		Description(fmt.Sprintf("Question %d of %d", q.Index, q.Total)).
		Affirmative("Yes").
		Negative("No").
		Value(&yes).
		Run()
	if err != nil {
		return false, err
	}
	return yes, nil
}

// lineAsker reads one answer per line. Anything but y/yes/s/si counts as no.
// EOF is an error so a closed input ends the exchange instead of answering no.
func lineAsker(in *bufio.Reader, out io.Writer) disambiguate.Asker {
	return func(q disambiguate.Question) (bool, error) {
		fmt.Fprintf(out, "[%d/%d] %s [y/N] ", q.Index, q.Total, q.Text())

		line, err := in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return false, fmt.Errorf("read answer: %w", err)
		}
		return isYes(line), nil
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}
