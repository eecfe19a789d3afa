package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lanprobe/internal/version"
)

// appName is shown in the screen header
const appName = "LANPROBE"

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 120
	maxLogEntries    = 200
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4")
	SecondaryColor = lipgloss.Color("#43BF6D")
	AccentColor    = lipgloss.Color("#00D7FF")
	WarningColor   = lipgloss.Color("#FFA500")
	ErrorColor     = lipgloss.Color("#FF5555")
	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#626262")
	BorderColor    = lipgloss.Color("#7D56F4")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SectionStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginTop(1)

	DeviceStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	SelectedDeviceStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	LogTimeStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	LogTextStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

func clampWidth(width int) int {
	if width <= 0 {
		return 72
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// renderContainer frames content with a header and a footer carrying help text
func renderContainer(content, footer string, width, height int) string {
	width = clampWidth(width)

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		TitleStyle.Render(appName),
		SubtitleStyle.Render("  "+version.Version),
	)
	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1)
	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1)

	inner := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(header),
		lipgloss.NewStyle().Width(width-4).Render(content),
		footerStyle.Render(footer),
	)

	outer := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2)
	if height > 2 {
		outer = outer.Height(height - 2).AlignVertical(lipgloss.Top)
	}
	return outer.Render(inner)
}
