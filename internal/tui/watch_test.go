package tui

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/lanprobe/internal/discovery"
	"github.com/muurk/lanprobe/internal/protocol"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m WatchModel, msg tea.Msg) (WatchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	wm, ok := next.(WatchModel)
	require.True(t, ok)
	return wm, cmd
}

// loopbackClient probes itself on an ephemeral port so no broadcast leaves the host
func loopbackClient() *discovery.Client {
	c := discovery.NewClient(0)
	c.Mode = discovery.SendSingle
	c.BroadcastIP = net.IPv4(127, 0, 0, 1)
	return c
}

func TestWatchModel_RecordsRepliesPerAddress(t *testing.T) {
	m := NewWatchModel(discovery.NewClient(0), time.Second)
	m.gen = 1
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	var cmd tea.Cmd
	m, cmd = update(t, m, deviceFoundMsg{address: "10.0.0.2", at: at, gen: 1})
	assert.NotNil(t, cmd, "the device listener must be re-armed")
	m, _ = update(t, m, deviceFoundMsg{address: "10.0.0.3", at: at, gen: 1})
	m, _ = update(t, m, deviceFoundMsg{address: "10.0.0.2", at: at.Add(time.Second), gen: 1})

	devices := m.SessionDevices()
	require.Len(t, devices, 2)
	assert.Equal(t, "10.0.0.2", devices[0].IP)
	assert.Equal(t, 2, devices[0].Replies)
	assert.Equal(t, at, devices[0].FirstSeen)
	assert.Equal(t, at.Add(time.Second), devices[0].LastSeen)
	assert.Equal(t, "10.0.0.3", devices[1].IP)
	assert.Len(t, m.Log, 3)
}

func TestWatchModel_DropsStaleSession(t *testing.T) {
	m := NewWatchModel(discovery.NewClient(0), time.Second)
	m.gen = 2

	m, cmd := update(t, m, deviceFoundMsg{address: "10.0.0.9", at: time.Now(), gen: 1})
	assert.NotNil(t, cmd)
	assert.Empty(t, m.SessionDevices())
}

func TestWatchModel_Clear(t *testing.T) {
	m := NewWatchModel(discovery.NewClient(0), time.Second)
	m.gen = 1
	m, _ = update(t, m, deviceFoundMsg{address: "10.0.0.2", at: time.Now(), gen: 1})
	require.Len(t, m.SessionDevices(), 1)

	m, _ = update(t, m, runeKey('c'))
	assert.Empty(t, m.SessionDevices())
	assert.Empty(t, m.Log)
}

func TestWatchModel_ScanDone(t *testing.T) {
	m := NewWatchModel(discovery.NewClient(0), time.Second)
	m.gen = 3
	m.Scanning = true

	m, _ = update(t, m, scanDoneMsg{gen: 2})
	assert.True(t, m.Scanning, "an older session ending must not stop the current one")

	m, _ = update(t, m, scanDoneMsg{gen: 3})
	assert.False(t, m.Scanning)
	assert.Contains(t, m.Log[len(m.Log)-1].text, "0 device(s)")
}

func TestWatchModel_TickStopsWhenIdle(t *testing.T) {
	m := NewWatchModel(discovery.NewClient(0), time.Second)
	m.gen = 1
	m.Scanning = true

	_, cmd := update(t, m, tickMsg{gen: 1})
	assert.NotNil(t, cmd)

	m.Scanning = false
	_, cmd = update(t, m, tickMsg{gen: 1})
	assert.Nil(t, cmd)
}

func TestWatchModel_BindErrorShown(t *testing.T) {
	conn, err := net.ListenPacket("udp4", ":0")
	require.NoError(t, err)
	defer conn.Close()
	port := conn.LocalAddr().(*net.UDPAddr).Port

	client := discovery.NewClient(port)
	client.Mode = discovery.SendSingle
	client.BroadcastIP = net.IPv4(127, 0, 0, 1)

	m := NewWatchModel(client, time.Second)
	m, cmd := update(t, m, rescanMsg{})
	assert.Nil(t, cmd)
	assert.False(t, m.Scanning)

	var be *discovery.BindError
	require.True(t, errors.As(m.Err, &be))
	assert.Equal(t, port, be.Port)
	assert.Contains(t, m.View(), "Press r to retry")
	assert.False(t, client.Active())
}

func TestWatchModel_EndToEnd(t *testing.T) {
	client := loopbackClient()
	m := NewWatchModel(client, 5*time.Second)

	m, cmd := update(t, m, rescanMsg{})
	require.NoError(t, m.Err)
	require.True(t, m.Scanning)
	require.NotNil(t, cmd)
	require.True(t, client.Active())

	addr := client.LocalAddr()
	require.NotNil(t, addr)

	sender, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: addr.Port})
	require.NoError(t, err)
	defer sender.Close()
	_, err = sender.Write([]byte(protocol.Ack))
	require.NoError(t, err)

	var found deviceFoundMsg
	select {
	case found = <-m.events:
	case <-time.After(2 * time.Second):
		t.Fatal("no device reported")
	}
	assert.Equal(t, "127.0.0.1", found.address)
	assert.Equal(t, m.gen, found.gen)

	m, _ = update(t, m, found)
	require.Len(t, m.SessionDevices(), 1)

	view := m.View()
	assert.Contains(t, view, "LANPROBE")
	assert.Contains(t, view, "Devices (1)")
	assert.Contains(t, view, "127.0.0.1")

	m, cmd = update(t, m, runeKey('q'))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.False(t, client.Active())

	require.ErrorIs(t, client.Start(context.Background(), func(string) {}), discovery.ErrClientClosed)
}

func TestWatchModel_RescanSupersedesSession(t *testing.T) {
	client := loopbackClient()
	m := NewWatchModel(client, 5*time.Second)

	m, _ = update(t, m, rescanMsg{})
	require.True(t, m.Scanning)
	firstID := client.SessionID()
	firstGen := m.gen

	m, _ = update(t, m, runeKey('r'))
	require.True(t, m.Scanning)
	assert.NotEqual(t, firstID, client.SessionID())
	assert.Equal(t, firstGen+1, m.gen)

	m.shutdown()
	assert.False(t, client.Active())
}

func TestWatchModel_WindowResize(t *testing.T) {
	m := NewWatchModel(discovery.NewClient(0), 0)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 90, Height: 40})
	assert.Equal(t, 90, m.Width)

	view := m.View()
	assert.Contains(t, view, "No replies yet")
	assert.True(t, strings.Contains(view, "Idle"))
}
