package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/lanprobe/internal/logging"
	"github.com/muurk/lanprobe/internal/protocol"
)

// DefaultScanTimeout is the default discovery window
const DefaultScanTimeout = 10 * time.Second

// Scanner runs one bounded discovery window on top of a Client and collects
// the responders it hears from. The Client has no timeout of its own; the
// window is imposed here by cancelling the session's context.
type Scanner struct {
	// Port is the discovery port
	Port int

	// Timeout is the discovery window
	Timeout time.Duration

	// Mode and BufferSize are passed to the Client
	Mode       SendMode
	BufferSize int

	// MDNS also browses for responders advertising over mDNS
	MDNS bool

	// OnDevice, if set, is called the first time each address is seen.
	// It runs on a background goroutine.
	OnDevice func(*Device)

	// OnSendWarning is passed to the Client
	OnSendWarning func(*SendWarning)

	// newClient is replaced by tests to aim probes at a loopback responder
	newClient func(port int) *Client
}

// NewScanner creates a scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Port:       protocol.DefaultPort,
		Timeout:    DefaultScanTimeout,
		Mode:       SendPerInterface,
		BufferSize: protocol.DefaultBufferSize,
	}
}

// ScanForDevices discovers responders for the scanner's timeout
func (s *Scanner) ScanForDevices() ([]*Device, error) {
	return s.ScanForDevicesWithContext(context.Background())
}

// ScanForDevicesWithContext discovers responders until the timeout elapses or
// ctx is cancelled, and returns them in first-seen order. Only a bind failure
// is returned as an error; a cancelled ctx yields the devices seen so far.
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]*Device, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	set := newDeviceSet()
	report := func(d *Device, first bool) {
		if first && s.OnDevice != nil {
			s.OnDevice(d)
		}
	}

	client := s.client()
	defer client.Close()

	err := client.Start(ctx, func(address string) {
		report(set.recordAck(address, time.Now()))
	})
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	var wg sync.WaitGroup
	if s.MDNS {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := BrowseResponders(ctx, func(d *Device) {
				report(set.merge(d))
			})
			if err != nil {
				logging.Warn("mDNS browse failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	client.Stop()
	wg.Wait()

	return set.snapshot(), nil
}

// WaitForAddress runs discovery until the given address answers, the timeout
// elapses or ctx is cancelled.
func (s *Scanner) WaitForAddress(ctx context.Context, address string) (*Device, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	found := make(chan *Device, 1)
	client := s.client()
	defer client.Close()

	err := client.Start(ctx, func(addr string) {
		if addr != address {
			return
		}
		now := time.Now()
		select {
		case found <- &Device{IP: addr, Methods: MethodAck, Replies: 1, FirstSeen: now, LastSeen: now}:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	select {
	case d := <-found:
		return d, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("device %s did not answer within %s", address, timeout)
	}
}

func (s *Scanner) client() *Client {
	var c *Client
	if s.newClient != nil {
		c = s.newClient(s.Port)
	} else {
		c = NewClient(s.Port)
	}
	c.Mode = s.Mode
	c.BufferSize = s.BufferSize
	c.OnSendWarning = s.OnSendWarning
	return c
}

// ScanForDevices is a convenience function to scan a port for a fixed window
func ScanForDevices(port int, timeout time.Duration) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Port = port
	scanner.Timeout = timeout
	return scanner.ScanForDevices()
}
