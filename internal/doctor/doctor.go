// Package doctor prints diagnostic reports about the local hostprobe setup.
package doctor

import (
	"fmt"
	"io"

	"github.com/majorcontext/hostprobe/internal/ui"
)

// Section is one titled block of the report.
type Section interface {
	Name() string
	// Print writes the section body. An error is shown in place of whatever
	// the section could not report; later sections still run.
	Print(w io.Writer) error
}

// Report is an ordered list of sections.
type Report struct {
	sections []Section
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{}
}

// Add appends a section.
func (r *Report) Add(s Section) {
	r.sections = append(r.sections, s)
}

// Sections returns the sections in the order they were added.
func (r *Report) Sections() []Section {
	return r.sections
}

// Write prints every section under its heading and returns how many failed.
func (r *Report) Write(w io.Writer) int {
	failed := 0
	for _, s := range r.sections {
		fmt.Fprintln(w, ui.Section(s.Name()))
		if err := s.Print(w); err != nil {
			fmt.Fprintf(w, "%s %v\n", ui.FailTag(), err)
			failed++
		}
		fmt.Fprintln(w)
	}
	return failed
}

// Func adapts a function to a Section.
type Func struct {
	Title string
	Fn    func(w io.Writer) error
}

// Name returns the section title.
func (f Func) Name() string { return f.Title }

// Print calls the function.
func (f Func) Print(w io.Writer) error { return f.Fn(w) }
