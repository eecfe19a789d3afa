package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Param is one labelled value shown under a header or result title.
// Params keep their order.
type Param struct {
	Key   string
	Value string
}

// Header is the banner printed at the start of a command
type Header struct {
	Title   string // e.g. "Discovery"
	Command string // e.g. "lanprobe scan"
	Params  []Param
	Width   int
}

// NewHeader creates a header sized to the terminal
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the render width
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header
func (h *Header) Render() string {
	width := clampWidth(h.Width)

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	)

	content := top
	if len(h.Params) > 0 {
		lines := make([]string, 0, len(h.Params))
		for _, p := range h.Params {
			lines = append(lines, HeaderParamKeyStyle.Render(p.Key+":")+" "+HeaderParamValueStyle.Render(p.Value))
		}
		content = lipgloss.JoinVertical(lipgloss.Left,
			top,
			RenderHorizontalDivider(width-6),
			strings.Join(lines, "\n"),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
