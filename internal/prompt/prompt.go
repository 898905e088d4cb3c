// Package prompt reads lines of operator input, with line editing and
// history when attached to a terminal and plain buffered reads otherwise.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/majorcontext/hostprobe/internal/log"
)

// ErrAborted is returned when the operator presses Ctrl-C at the prompt.
var ErrAborted = errors.New("input aborted")

// LineReader reads one line at a time. ReadLine returns io.EOF at end of
// input.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// Options selects and configures a LineReader.
type Options struct {
	In  *os.File
	Out *os.File
	// HistoryFile persists terminal history between sessions. Empty disables
	// persistence.
	HistoryFile string
	// Completions are offered on Tab.
	Completions []string
}

// New returns a Terminal reader when both In and Out are terminals and a
// Plain reader otherwise.
func New(opts Options) LineReader {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if IsTerminal(opts.In) && IsTerminal(opts.Out) {
		return NewTerminal(opts.HistoryFile, opts.Completions)
	}
	return NewPlain(opts.In, opts.Out)
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Terminal is a line editor with history and tab completion.
type Terminal struct {
	line        *liner.State
	historyFile string
}

// NewTerminal starts a line editor. It takes over the terminal until Close.
func NewTerminal(historyFile string, completions []string) *Terminal {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(Completer(completions))

	t := &Terminal{line: line, historyFile: historyFile}
	t.loadHistory()
	return t
}

// ReadLine shows prompt and reads a line. Non-blank lines join the history.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	input, err := t.line.Prompt(prompt)
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrAborted
	case err != nil:
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		t.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (t *Terminal) Close() error {
	t.saveHistory()
	return t.line.Close()
}

func (t *Terminal) loadHistory() {
	if t.historyFile == "" {
		return
	}
	f, err := os.Open(t.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := t.line.ReadHistory(f); err != nil {
		log.Debug("reading prompt history", "path", t.historyFile, "error", err)
	}
}

func (t *Terminal) saveHistory() {
	if t.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(t.historyFile), 0o700); err != nil {
		log.Debug("creating prompt history dir", "error", err)
		return
	}
	f, err := os.OpenFile(t.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		log.Debug("writing prompt history", "path", t.historyFile, "error", err)
		return
	}
	defer f.Close()
	t.line.WriteHistory(f)
}

// Completer returns a completion function offering the words that start with
// the typed text, ignoring case, in sorted order.
func Completer(words []string) func(string) []string {
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)
	return func(line string) []string {
		prefix := strings.ToLower(strings.TrimSpace(line))
		var out []string
		for _, w := range sorted {
			if strings.HasPrefix(strings.ToLower(w), prefix) {
				out = append(out, w)
			}
		}
		return out
	}
}

// Plain reads lines from any reader and echoes prompts to w.
type Plain struct {
	sc *bufio.Scanner
	w  io.Writer
}

// NewPlain reads from r and writes prompts to w.
func NewPlain(r io.Reader, w io.Writer) *Plain {
	return &Plain{sc: bufio.NewScanner(r), w: w}
}

// ReadLine writes prompt and returns the next line without its terminator.
func (p *Plain) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSuffix(p.sc.Text(), "\r"), nil
}

// Close is a no-op; the underlying reader belongs to the caller.
func (p *Plain) Close() error { return nil }
