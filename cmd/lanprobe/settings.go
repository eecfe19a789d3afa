package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/lanprobe/internal/config"
	"github.com/muurk/lanprobe/internal/discovery"
	"github.com/muurk/lanprobe/internal/protocol"
)

// discoveryFlags are shared by scan and watch
type discoveryFlags struct {
	port       int
	timeout    int
	mode       string
	bufferSize int
}

func (f *discoveryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.port, "port", protocol.DefaultPort, "UDP discovery port")
	cmd.Flags().IntVar(&f.timeout, "timeout", 10, "Discovery window in seconds")
	cmd.Flags().StringVar(&f.mode, "mode", discovery.SendPerInterface.String(), "Probe send mode (interfaces, single)")
	cmd.Flags().IntVar(&f.bufferSize, "buffer-size", protocol.DefaultBufferSize, "Largest datagram accepted, in bytes")
}

// discoverySettings is the merged result of config file and flags
type discoverySettings struct {
	Port       int
	Timeout    time.Duration
	Mode       discovery.SendMode
	BufferSize int
	MDNS       bool
}

// resolve merges prefs with the flags the user actually set
func (f *discoveryFlags) resolve(cmd *cobra.Command, prefs *config.DiscoveryPrefs) (discoverySettings, error) {
	s := discoverySettings{
		Port:       prefs.Port,
		Timeout:    prefs.Timeout(),
		Mode:       prefs.Mode(),
		BufferSize: prefs.BufferSize,
		MDNS:       prefs.MDNS,
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		s.Port = f.port
	}
	if flags.Changed("timeout") {
		if f.timeout < 0 {
			return s, fmt.Errorf("--timeout must not be negative: %d", f.timeout)
		}
		s.Timeout = time.Duration(f.timeout) * time.Second
	}
	if flags.Changed("mode") {
		mode, err := discovery.ParseSendMode(f.mode)
		if err != nil {
			return s, err
		}
		s.Mode = mode
	}
	if flags.Changed("buffer-size") {
		s.BufferSize = f.bufferSize
	}

	if s.Port < 0 || s.Port > 65535 {
		return s, fmt.Errorf("--port must be between 0 and 65535: %d", s.Port)
	}
	if s.BufferSize < 0 || s.BufferSize > protocol.MaxBufferSize {
		return s, fmt.Errorf("--buffer-size must be between 0 and %d: %d", protocol.MaxBufferSize, s.BufferSize)
	}
	return s, nil
}

func (s discoverySettings) newScanner() *discovery.Scanner {
	scanner := discovery.NewScanner()
	scanner.Port = s.Port
	scanner.Timeout = s.Timeout
	scanner.Mode = s.Mode
	scanner.BufferSize = s.BufferSize
	scanner.MDNS = s.MDNS
	return scanner
}

func (s discoverySettings) newClient() *discovery.Client {
	client := discovery.NewClient(s.Port)
	client.Mode = s.Mode
	client.BufferSize = s.BufferSize
	return client
}
