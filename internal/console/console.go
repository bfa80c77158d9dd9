// Package console prints the labelled, human-facing output of dcs commands.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	infoLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	successLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warningLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Printer writes to one stream, with colour only when that stream is a
// terminal and colour was not turned off.
type Printer struct {
	out   io.Writer
	color bool
}

// New returns a printer for w. Colour is off when noColor is set, when
// NO_COLOR is present in the environment, or when w is not a terminal.
func New(w io.Writer, noColor bool) *Printer {
	return &Printer{out: w, color: !noColor && os.Getenv("NO_COLOR") == "" && isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Writer returns the underlying stream.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Color reports whether styling is applied.
func (p *Printer) Color() bool {
	return p.color
}

func (p *Printer) Info(format string, args ...any) {
	p.labelled(infoLabel, "INFO:", format, args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.labelled(successLabel, "SUCCESS:", format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.labelled(warningLabel, "WARNING:", format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.labelled(errorLabel, "ERROR:", format, args...)
}

// Header prints a bold line.
func (p *Printer) Header(format string, args ...any) {
	fmt.Fprintln(p.out, p.style(headerStyle, fmt.Sprintf(format, args...)))
}

// Bullet prints an indented list item.
func (p *Printer) Bullet(format string, args ...any) {
	fmt.Fprintf(p.out, "  • %s\n", fmt.Sprintf(format, args...))
}

// Dim prints a de-emphasised line.
func (p *Printer) Dim(format string, args ...any) {
	fmt.Fprintln(p.out, p.style(dimStyle, fmt.Sprintf(format, args...)))
}

// Plain prints text as is.
func (p *Printer) Plain(text string) {
	fmt.Fprintln(p.out, text)
}

func (p *Printer) labelled(style lipgloss.Style, label, format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.style(style, label), fmt.Sprintf(format, args...))
}

func (p *Printer) style(style lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return style.Render(text)
}
