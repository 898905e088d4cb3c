// Package ui formats what hostprobe shows the operator: the operation menu,
// server responses, and colored warnings and errors.
package ui

import (
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"unicode"

	"github.com/mattn/go-isatty"
)

var errWriter io.Writer = os.Stderr

// SetWriter redirects warnings and errors. nil restores stderr.
func SetWriter(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	errWriter = w
}

var colorEnabled = detectColor(os.Stdout)

func detectColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColorEnabled overrides color detection.
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// ColorEnabled reports whether output is colored.
func ColorEnabled() bool {
	return colorEnabled
}

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Bold wraps s in bold.
func Bold(s string) string { return paint("1", s) }

// Dim wraps s in dim.
func Dim(s string) string { return paint("2", s) }

// Green wraps s in green.
func Green(s string) string { return paint("32", s) }

// Red wraps s in red.
func Red(s string) string { return paint("31", s) }

// Yellow wraps s in yellow.
func Yellow(s string) string { return paint("33", s) }

// Cyan wraps s in cyan.
func Cyan(s string) string { return paint("36", s) }

// Section returns title in bold over a dim rule of the same width.
func Section(title string) string {
	return Bold(title) + "\n" + Dim(strings.Repeat("─", len([]rune(title))))
}

// OKTag returns a green check mark.
func OKTag() string { return Green("✓") }

// FailTag returns a red cross.
func FailTag() string { return Red("✗") }

// WarnTag returns a yellow warning sign.
func WarnTag() string { return Yellow("⚠") }

// Warnf prints a warning to the error writer.
func Warnf(format string, args ...any) {
	fmt.Fprintf(errWriter, "%s %s\n", Yellow("Warning:"), fmt.Sprintf(format, args...))
}

// Errorf prints an error to the error writer.
func Errorf(format string, args ...any) {
	fmt.Fprintf(errWriter, "%s %s\n", Red("Error:"), fmt.Sprintf(format, args...))
}

// Menu writes the numbered list of operations followed by the quit hint.
// The layout is fixed; scripts driving hostprobe over a pipe read it.
func Menu(w io.Writer, count int, items iter.Seq2[int, string]) {
	fmt.Fprintf(w, "---There are %d supported operations-------------\n", count)
	for i, desc := range items {
		fmt.Fprintf(w, " %d. %s\n", i, desc)
	}
	fmt.Fprintln(w, "Enter 0 to quit.")
	fmt.Fprintln(w)
}

// Response writes a server response. Invalid UTF-8 and control characters
// other than newline and tab are replaced so a misbehaving server cannot
// drive the terminal. A trailing newline is added if missing.
func Response(w io.Writer, data []byte) {
	if len(data) == 0 {
		fmt.Fprintln(w, Dim("(empty response)"))
		return
	}
	text := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		if r == '\r' {
			return -1
		}
		return unicode.ReplacementChar
	}, strings.ToValidUTF8(string(data), string(unicode.ReplacementChar)))

	io.WriteString(w, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(w)
	}
}
