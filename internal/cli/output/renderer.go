// Package output renders command results for terminals, Markdown consumers
// and JSON tooling.
//
// ModeAuto picks styled text on a terminal and Markdown when output is piped,
// so agents and scripts get a stable, uncoloured format by default.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// OutputMode selects how results are rendered.
//
//nolint:revive // the package name stutters, callers read output.Mode
type OutputMode string

// Mode is shorthand for OutputMode.
type Mode = OutputMode

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes results to an output and a diagnostic stream.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		isTTY:  isTTY,
		mode:   mode,
		styles: NewStyles(newLipgloss(out, isTTY), isTTY),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// EffectiveMode resolves ModeAuto against the terminal state.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether the output is a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Writer returns the output stream.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the diagnostic stream.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the styles for text mode.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to the output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a heading in the current mode.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeText {
		style := r.styles.Header1
		if level > 1 {
			style = r.styles.Header2
		}
		r.Println(style.Render(text))
		return
	}
	r.Println(FormatHeader(level, text))
}

// Success writes a success message to the diagnostic stream.
func (r *Renderer) Success(msg string) {
	r.status(r.styles.Success, "✓", msg)
}

// Warning writes a warning to the diagnostic stream.
func (r *Renderer) Warning(msg string) {
	r.status(r.styles.Warning, "!", msg)
}

// Error writes an error to the diagnostic stream.
func (r *Renderer) Error(msg string) {
	r.status(r.styles.Error, "✗", msg)
}

// Muted writes a de-emphasised note to the diagnostic stream.
func (r *Renderer) Muted(msg string) {
	if r.EffectiveMode() == ModeText {
		msg = r.styles.Muted.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errOut, msg)
}

func (r *Renderer) status(style lipgloss.Style, icon, msg string) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(r.errOut, style.Render(icon)+" "+msg)
		return
	}
	_, _ = fmt.Fprintln(r.errOut, icon+" "+msg)
}

// StatusLine writes "<icon> name  detail" to the output, where status is
// one of success, warning, error or skipped.
func (r *Renderer) StatusLine(name, status, detail string) {
	icon, style := "•", r.styles.Muted
	switch status {
	case "success":
		icon, style = "✓", r.styles.Success
	case "warning":
		icon, style = "!", r.styles.Warning
	case "error":
		icon, style = "✗", r.styles.Error
	}

	line := name
	if detail != "" {
		line += "  " + detail
	}
	if r.EffectiveMode() == ModeText {
		r.Printf("%s %s\n", style.Render(icon), line)
		return
	}
	if r.EffectiveMode() == ModeMarkdown {
		r.Printf("- %s %s\n", icon, line)
		return
	}
	r.Printf("%s %s\n", icon, line)
}

// JSON writes v as indented JSON to the output.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatHeader returns a Markdown heading.
func FormatHeader(level int, text string) string {
	level = max(1, min(level, 6))
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a Markdown list item "- **key**: value".
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// newLipgloss pins the color profile to Ascii when out is not a terminal so
// piped output never carries escape sequences.
func newLipgloss(out io.Writer, isTTY bool) *lipgloss.Renderer {
	if !isTTY {
		return lipgloss.NewRenderer(out, termenv.WithProfile(termenv.Ascii))
	}
	return lipgloss.NewRenderer(out, termenv.WithColorCache(true))
}
