package output

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles used in text mode.
type Styles struct {
	Header1   lipgloss.Style
	Header2   lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Attribute lipgloss.Style
	Label     lipgloss.Style
	Type      lipgloss.Style
	Said      lipgloss.Style
}

// NewStyles builds styles bound to r. Without a terminal every style
// renders its input unchanged.
func NewStyles(r *lipgloss.Renderer, isTTY bool) *Styles {
	if !isTTY {
		plain := r.NewStyle()
		return &Styles{
			Header1: plain, Header2: plain, Success: plain, Warning: plain,
			Error: plain, Muted: plain, Attribute: plain, Label: plain,
			Type: plain, Said: plain,
		}
	}

	return &Styles{
		Header1:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Header2:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Success:   r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		Attribute: r.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
		Label:     r.NewStyle().Foreground(lipgloss.Color("13")),
		Type:      r.NewStyle().Foreground(lipgloss.Color("6")),
		Said:      r.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
	}
}
