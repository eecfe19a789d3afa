package config

import (
	"fmt"
	"time"

	"github.com/muurk/lanprobe/internal/discovery"
	"github.com/muurk/lanprobe/internal/protocol"
)

// CurrentVersion is the schema version written by this build
const CurrentVersion = 1

// Config represents the entire preferences file
type Config struct {
	Version   int             `yaml:"version"`
	LogLevel  string          `yaml:"log_level,omitempty"` // "", debug, info, warn, error
	Discovery *DiscoveryPrefs `yaml:"discovery,omitempty"`
	Responder *ResponderPrefs `yaml:"responder,omitempty"`
}

// DiscoveryPrefs holds defaults for scan and watch
type DiscoveryPrefs struct {
	Port           int    `yaml:"port"`            // UDP discovery port
	TimeoutSeconds int    `yaml:"timeout_seconds"` // Discovery window
	SendMode       string `yaml:"send_mode"`       // interfaces or single
	BufferSize     int    `yaml:"buffer_size"`     // Receive buffer bound in bytes
	MDNS           bool   `yaml:"mdns,omitempty"`  // Also browse mDNS
}

// ResponderPrefs holds defaults for respond
type ResponderPrefs struct {
	Port      int    `yaml:"port"`
	ReplyPort int    `yaml:"reply_port,omitempty"` // 0 = same as port
	Advertise bool   `yaml:"advertise,omitempty"`
	Instance  string `yaml:"instance,omitempty"`
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		Version:   CurrentVersion,
		Discovery: defaultDiscovery(),
		Responder: defaultResponder(),
	}
}

func defaultDiscovery() *DiscoveryPrefs {
	return &DiscoveryPrefs{
		Port:           protocol.DefaultPort,
		TimeoutSeconds: int(discovery.DefaultScanTimeout / time.Second),
		SendMode:       discovery.SendPerInterface.String(),
		BufferSize:     protocol.DefaultBufferSize,
	}
}

func defaultResponder() *ResponderPrefs {
	return &ResponderPrefs{
		Port: protocol.DefaultPort,
	}
}

// applyDefaults fills sections and zero fields left out of the file
func (c *Config) applyDefaults() {
	if c.Discovery == nil {
		c.Discovery = defaultDiscovery()
	}
	if c.Responder == nil {
		c.Responder = defaultResponder()
	}
	d := defaultDiscovery()
	if c.Discovery.Port == 0 {
		c.Discovery.Port = d.Port
	}
	if c.Discovery.TimeoutSeconds == 0 {
		c.Discovery.TimeoutSeconds = d.TimeoutSeconds
	}
	if c.Discovery.SendMode == "" {
		c.Discovery.SendMode = d.SendMode
	}
	if c.Discovery.BufferSize == 0 {
		c.Discovery.BufferSize = d.BufferSize
	}
	if c.Responder.Port == 0 {
		c.Responder.Port = protocol.DefaultPort
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if err := validPort("discovery.port", c.Discovery.Port); err != nil {
		return err
	}
	if c.Discovery.TimeoutSeconds < 0 {
		return fmt.Errorf("discovery.timeout_seconds must not be negative: %d", c.Discovery.TimeoutSeconds)
	}
	if _, err := discovery.ParseSendMode(c.Discovery.SendMode); err != nil {
		return fmt.Errorf("discovery.send_mode: %w", err)
	}
	if c.Discovery.BufferSize < 0 || c.Discovery.BufferSize > protocol.MaxBufferSize {
		return fmt.Errorf("discovery.buffer_size must be between 0 and %d: %d", protocol.MaxBufferSize, c.Discovery.BufferSize)
	}
	if err := validPort("responder.port", c.Responder.Port); err != nil {
		return err
	}
	if c.Responder.ReplyPort != 0 {
		if err := validPort("responder.reply_port", c.Responder.ReplyPort); err != nil {
			return err
		}
	}
	return nil
}

// Timeout returns the discovery window as a duration
func (d *DiscoveryPrefs) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Mode returns the parsed send mode, falling back to per-interface
func (d *DiscoveryPrefs) Mode() discovery.SendMode {
	mode, err := discovery.ParseSendMode(d.SendMode)
	if err != nil {
		return discovery.SendPerInterface
	}
	return mode
}

func validPort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535: %d", field, port)
	}
	return nil
}
