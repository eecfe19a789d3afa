package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/lanprobe/internal/config"
	"github.com/muurk/lanprobe/internal/discovery"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		configPath = ""
		configForce = false
		versionJSON = false
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newFlagCommand(t *testing.T, args ...string) (*cobra.Command, *discoveryFlags) {
	t.Helper()
	var f discoveryFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, &f
}

func TestDiscoveryFlags_Resolve(t *testing.T) {
	prefs := config.NewConfig().Discovery
	prefs.Port = 4000
	prefs.TimeoutSeconds = 3
	prefs.SendMode = "single"

	tests := []struct {
		name    string
		args    []string
		want    discoverySettings
		wantErr bool
	}{
		{
			name: "file values when no flags are set",
			want: discoverySettings{Port: 4000, Timeout: 3 * time.Second, Mode: discovery.SendSingle, BufferSize: 1024},
		},
		{
			name: "flags override file",
			args: []string{"--port", "5000", "--timeout", "7", "--mode", "interfaces", "--buffer-size", "2048"},
			want: discoverySettings{Port: 5000, Timeout: 7 * time.Second, Mode: discovery.SendPerInterface, BufferSize: 2048},
		},
		{
			name: "zero timeout kept",
			args: []string{"--timeout", "0"},
			want: discoverySettings{Port: 4000, Timeout: 0, Mode: discovery.SendSingle, BufferSize: 1024},
		},
		{name: "negative timeout", args: []string{"--timeout", "-1"}, wantErr: true},
		{name: "unknown mode", args: []string{"--mode", "multicast"}, wantErr: true},
		{name: "port out of range", args: []string{"--port", "70000"}, wantErr: true},
		{name: "buffer too large", args: []string{"--buffer-size", "70000"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, f := newFlagCommand(t, tt.args...)
			got, err := f.resolve(cmd, prefs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverySettings_NewScanner(t *testing.T) {
	s := discoverySettings{Port: 4000, Timeout: time.Second, Mode: discovery.SendSingle, BufferSize: 64, MDNS: true}
	scanner := s.newScanner()
	assert.Equal(t, 4000, scanner.Port)
	assert.Equal(t, time.Second, scanner.Timeout)
	assert.Equal(t, discovery.SendSingle, scanner.Mode)
	assert.Equal(t, 64, scanner.BufferSize)
	assert.True(t, scanner.MDNS)

	client := s.newClient()
	assert.Equal(t, 4000, client.Port())
	assert.Equal(t, discovery.SendSingle, client.Mode)
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("LANPROBE_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "lanprobe.yaml")

	out, err := execute(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	out, err = execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 9999")
	assert.Contains(t, out, "send_mode: interfaces")
}

func TestBrokenConfigOnlyBlocksCommandsThatNeedIt(t *testing.T) {
	t.Setenv("LANPROBE_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "lanprobe.yaml")
	require.NoError(t, writeFile(path, "version: 7\n"))

	_, err := execute(t, "--config", path, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version")

	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	_, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Commit)
}

func TestToDeviceJSON(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := &discovery.Device{IP: "10.0.0.4", Methods: discovery.MethodAck, Replies: 3, FirstSeen: at, LastSeen: at}

	data, err := json.Marshal(toDeviceJSON(d))
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"10.0.0.4","via":"ack","replies":3,"first_seen":"2026-01-01T00:00:00Z","last_seen":"2026-01-01T00:00:00Z"}`, string(data))
}

func TestWaitFailure(t *testing.T) {
	t.Run("timeout gets reachability hints", func(t *testing.T) {
		err := errors.New("device 10.0.0.5 did not answer within 2s")
		r := waitFailure(err, "10.0.0.5", 4242)
		tips := strings.Join(r.Troubleshooting, "\n")
		assert.Equal(t, "Device did not answer", r.Title)
		assert.Contains(t, tips, "10.0.0.5 is powered on")
		assert.Contains(t, tips, "UDP port 4242")
		assert.NotContains(t, tips, "LANPROBE_LOG_LEVEL=debug")
	})

	t.Run("bind failure gets socket hints", func(t *testing.T) {
		be := &discovery.BindError{Port: 4242, Reason: discovery.BindReasonAddrInUse, Err: syscall.EADDRINUSE}
		r := waitFailure(fmt.Errorf("discovery failed: %w", be), "10.0.0.5", 4242)
		tips := strings.Join(r.Troubleshooting, "\n")
		assert.Equal(t, "Could not listen for replies", r.Title)
		assert.Contains(t, tips, "ss -ulpn")
		assert.NotContains(t, tips, "powered on")
		assert.ErrorIs(t, r.Error, syscall.EADDRINUSE)
	})
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
