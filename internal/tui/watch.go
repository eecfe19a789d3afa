package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lanprobe/internal/discovery"
)

const (
	timeFormat     = "15:04:05"
	visibleLogRows = 8
	tickInterval   = 250 * time.Millisecond
)

// Messages
type rescanMsg struct{}

type deviceFoundMsg struct {
	address string
	at      time.Time
	gen     int
}

type scanDoneMsg struct{ gen int }

type tickMsg struct{ gen int }

type logEntry struct {
	at   time.Time
	text string
}

// deviceItem adapts a Device to bubbles/list
type deviceItem struct {
	device discovery.Device
}

func (d deviceItem) FilterValue() string { return d.device.IP }

type deviceDelegate struct{}

func (deviceDelegate) Height() int                             { return 1 }
func (deviceDelegate) Spacing() int                            { return 0 }
func (deviceDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(deviceItem)
	if !ok {
		return
	}
	d := it.device
	line := fmt.Sprintf("%-15s  first %s  last %s  replies %d",
		d.IP, d.FirstSeen.Format(timeFormat), d.LastSeen.Format(timeFormat), d.Replies)
	if index == m.Index() {
		fmt.Fprint(w, SelectedDeviceStyle.Render("→ "+line))
		return
	}
	fmt.Fprint(w, DeviceStyle.Render("  "+line))
}

// WatchModel is the interactive discovery screen
type WatchModel struct {
	client  *discovery.Client
	timeout time.Duration

	// events carries callback results from the receive goroutine
	events chan deviceFoundMsg
	cancel context.CancelFunc
	// gen identifies the current session; messages from older ones are dropped
	gen int

	Scanning  bool
	ScanStart time.Time
	Devices   list.Model
	Log       []logEntry
	Err       error
	Warning   *discovery.SendWarning

	Width    int
	Height   int
	Spinner  spinner.Model
	Progress progress.Model
	Help     help.Model
	Keys     keyMap
}

// NewWatchModel creates the screen for client. timeout bounds each discovery
// window; zero listens until the user rescans or quits.
func NewWatchModel(client *discovery.Client, timeout time.Duration) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	devices := list.New(nil, deviceDelegate{}, MinTerminalWidth-8, 8)
	devices.SetShowTitle(false)
	devices.SetShowStatusBar(false)
	devices.SetShowHelp(false)
	devices.SetFilteringEnabled(false)
	devices.DisableQuitKeybindings()

	return WatchModel{
		client:   client,
		timeout:  timeout,
		events:   make(chan deviceFoundMsg, 64),
		Devices:  devices,
		Spinner:  s,
		Progress: bar,
		Help:     help.New(),
		Keys:     newKeyMap(),
	}
}

// Init starts the first discovery session
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return rescanMsg{} },
		waitForDevice(m.events),
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Rescan):
			m.appendLog("Rescan requested")
			return m.startScan()
		case key.Matches(msg, m.Keys.Clear):
			m.Devices.SetItems(nil)
			m.Log = nil
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()
		return m, nil

	case rescanMsg:
		return m.startScan()

	case deviceFoundMsg:
		if msg.gen == m.gen {
			m.recordDevice(msg)
		}
		return m, waitForDevice(m.events)

	case scanDoneMsg:
		if msg.gen == m.gen && m.Scanning {
			m.Scanning = false
			m.client.Stop()
			m.appendLog(fmt.Sprintf("Discovery window closed, %d device(s)", len(m.Devices.Items())))
		}
		return m, nil

	case tickMsg:
		if msg.gen == m.gen && m.Scanning {
			return m, tick(m.gen)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Devices, cmd = m.Devices.Update(msg)
	return m, cmd
}

// startScan supersedes any running session with a new one
func (m WatchModel) startScan() (WatchModel, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.client.Stop()
	m.gen++
	gen := m.gen

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if m.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	m.cancel = cancel

	var warning *discovery.SendWarning
	m.client.OnSendWarning = func(w *discovery.SendWarning) { warning = w }

	events := m.events
	err := m.client.Start(ctx, func(address string) {
		select {
		case events <- deviceFoundMsg{address: address, at: time.Now(), gen: gen}:
		case <-ctx.Done():
		}
	})
	m.Warning = warning
	if err != nil {
		cancel()
		m.cancel = nil
		m.Scanning = false
		m.Err = err
		m.appendLog(fmt.Sprintf("Could not start discovery: %v", err))
		return m, nil
	}

	m.Err = nil
	m.Scanning = true
	m.ScanStart = time.Now()
	m.appendLog(fmt.Sprintf("Probe sent, listening on UDP %d", m.port()))
	if warning != nil {
		m.appendLog("Warning: " + warning.Error())
	}
	return m, tea.Batch(waitForScanEnd(ctx, gen), tick(gen))
}

func (m *WatchModel) recordDevice(msg deviceFoundMsg) {
	m.appendLog("ACK from " + msg.address)

	items := m.Devices.Items()
	for i, item := range items {
		it, ok := item.(deviceItem)
		if !ok || it.device.IP != msg.address {
			continue
		}
		it.device.Replies++
		it.device.LastSeen = msg.at
		m.Devices.SetItem(i, it)
		return
	}
	m.Devices.InsertItem(len(items), deviceItem{device: discovery.Device{
		IP:        msg.address,
		Methods:   discovery.MethodAck,
		Replies:   1,
		FirstSeen: msg.at,
		LastSeen:  msg.at,
	}})
}

func (m *WatchModel) appendLog(text string) {
	m.Log = append(m.Log, logEntry{at: time.Now(), text: text})
	if len(m.Log) > maxLogEntries {
		m.Log = m.Log[len(m.Log)-maxLogEntries:]
	}
}

func (m *WatchModel) resize() {
	width := clampWidth(m.Width)
	m.Progress.Width = min(60, width-12)
	rows := 8
	if m.Height > 0 {
		rows = max(3, m.Height-visibleLogRows-16)
	}
	m.Devices.SetSize(width-8, rows)
}

func (m WatchModel) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	_ = m.client.Close()
}

func (m WatchModel) port() int {
	if addr := m.client.LocalAddr(); addr != nil {
		return addr.Port
	}
	return m.client.Port()
}

// SessionDevices returns the devices currently listed
func (m WatchModel) SessionDevices() []discovery.Device {
	items := m.Devices.Items()
	out := make([]discovery.Device, 0, len(items))
	for _, item := range items {
		if it, ok := item.(deviceItem); ok {
			out = append(out, it.device)
		}
	}
	return out
}

// View renders the discovery screen
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(SectionStyle.Render(fmt.Sprintf("Devices (%d)", len(m.Devices.Items()))))
	b.WriteString("\n")
	if len(m.Devices.Items()) == 0 {
		b.WriteString(SubtitleStyle.Render("  No replies yet"))
	} else {
		b.WriteString(m.Devices.View())
	}
	b.WriteString("\n")
	b.WriteString(SectionStyle.Render("Log"))
	b.WriteString("\n")
	b.WriteString(m.renderLog())

	return renderContainer(b.String(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m WatchModel) renderStatus() string {
	var lines []string
	switch {
	case m.Err != nil:
		lines = append(lines, ErrorStyle.Render("✗ "+m.Err.Error()))
		lines = append(lines, SubtitleStyle.Render("Press r to retry"))
	case m.Scanning:
		status := fmt.Sprintf("%s Listening on UDP port %d", m.Spinner.View(), m.port())
		lines = append(lines, TitleStyle.Render(status))
		elapsed := time.Since(m.ScanStart)
		if m.timeout > 0 {
			fraction := float64(elapsed) / float64(m.timeout)
			if fraction > 1 {
				fraction = 1
			}
			lines = append(lines, m.Progress.ViewAs(fraction))
		}
		lines = append(lines, SubtitleStyle.Render(fmt.Sprintf("Elapsed: %ds", int(elapsed.Seconds()))))
	default:
		lines = append(lines, SubtitleStyle.Render("Idle. Press r to scan again."))
	}
	if m.Warning != nil {
		lines = append(lines, WarningStyle.Render(fmt.Sprintf("⚠ Probe sent on %d of %d sources", m.Warning.Sent, m.Warning.Attempted)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m WatchModel) renderLog() string {
	if len(m.Log) == 0 {
		return SubtitleStyle.Render("  (empty)")
	}
	start := max(0, len(m.Log)-visibleLogRows)
	lines := make([]string, 0, visibleLogRows)
	for _, e := range m.Log[start:] {
		lines = append(lines, "  "+LogTimeStyle.Render(e.at.Format(timeFormat))+"  "+LogTextStyle.Render(e.text))
	}
	return strings.Join(lines, "\n")
}

func waitForDevice(ch <-chan deviceFoundMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func waitForScanEnd(ctx context.Context, gen int) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return scanDoneMsg{gen: gen}
	}
}

func tick(gen int) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}
