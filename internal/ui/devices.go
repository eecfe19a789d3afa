package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lanprobe/internal/discovery"
)

// TimeFormat is the clock format used for device sightings
const TimeFormat = "15:04:05"

// RenderDeviceLine renders a single live sighting, e.g.
//
//	● 192.168.1.20  12:00:01
func RenderDeviceLine(address string, at time.Time) string {
	return fmt.Sprintf("  %s %s  %s",
		SuccessTitleStyle.Render(DeviceMarker),
		DeviceAddressStyle.Render(address),
		DeviceTimeStyle.Render(at.Format(TimeFormat)),
	)
}

// RenderDeviceTable renders devices as an aligned table in the order given
func RenderDeviceTable(devices []*discovery.Device, width int) string {
	if len(devices) == 0 {
		return DeviceTimeStyle.Render("  No devices replied.")
	}

	headers := []string{"ADDRESS", "VIA", "REPLIES", "FIRST SEEN", "NAME"}
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		name := d.Instance
		if name == "" {
			name = d.Hostname
		}
		rows = append(rows, []string{
			d.Address(),
			d.Methods.String(),
			strconv.Itoa(d.Replies),
			d.FirstSeen.Format(TimeFormat),
			name,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(headers, widths, func(int) lipgloss.Style { return TableHeaderStyle }))
	b.WriteByte('\n')
	total := len(widths) * 2
	for _, w := range widths {
		total += w
	}
	if total > clampWidth(width) {
		total = clampWidth(width)
	}
	b.WriteString("  " + RenderHorizontalDivider(total-2))
	for _, row := range rows {
		b.WriteByte('\n')
		b.WriteString(renderRow(row, widths, func(col int) lipgloss.Style {
			if col == 0 {
				return DeviceAddressStyle
			}
			if col == 3 {
				return DeviceTimeStyle
			}
			return DeviceDetailStyle
		}))
	}
	return b.String()
}

func renderRow(cells []string, widths []int, style func(col int) lipgloss.Style) string {
	var b strings.Builder
	b.WriteString("  ")
	for i, cell := range cells {
		padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		b.WriteString(style(i).Render(padded))
		if i < len(cells)-1 {
			b.WriteString("  ")
		}
	}
	return strings.TrimRight(b.String(), " ")
}
