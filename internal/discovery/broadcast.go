package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/muurk/lanprobe/internal/logging"
	"github.com/muurk/lanprobe/internal/protocol"
)

// SendMode selects how the probe is broadcast
type SendMode int

const (
	// SendPerInterface sends one probe from every up interface that carries
	// an IPv4 unicast address. This is the reliable choice on multi-homed hosts.
	SendPerInterface SendMode = iota
	// SendSingle sends one probe from an ephemeral unbound socket and lets the
	// routing table pick the egress interface.
	SendSingle
)

// String returns the configuration name of the mode
func (m SendMode) String() string {
	switch m {
	case SendPerInterface:
		return "interfaces"
	case SendSingle:
		return "single"
	default:
		return fmt.Sprintf("SendMode(%d)", m)
	}
}

// ParseSendMode parses a configuration name into a SendMode
func ParseSendMode(s string) (SendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "interfaces", "per-interface", "all":
		return SendPerInterface, nil
	case "single", "ephemeral":
		return SendSingle, nil
	default:
		return SendPerInterface, fmt.Errorf("unknown send mode %q (expected interfaces or single)", s)
	}
}

// probeSource is a local address a probe can be sent from
type probeSource struct {
	Interface string
	IP        net.IP
}

// usableIPv4 returns the IPv4 unicast addresses of an interface that should
// carry a probe. Down and loopback interfaces carry none.
func usableIPv4(flags net.Flags, addrs []net.Addr) []net.IP {
	if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
		return nil
	}
	var ips []net.IP
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		default:
			continue
		}
		ip4 := ip.To4()
		if ip4 == nil || ip4.IsLoopback() || ip4.IsUnspecified() || ip4.IsMulticast() || ip4.Equal(net.IPv4bcast) {
			continue
		}
		ips = append(ips, ip4)
	}
	return ips
}

// localProbeSources enumerates every local IPv4 source address eligible for
// a per-interface probe.
func localProbeSources() ([]probeSource, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	var sources []probeSource
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			logging.Debug("Skipping interface without readable addresses",
				zap.String("interface", iface.Name),
				zap.Error(err),
			)
			continue
		}
		for _, ip := range usableIPv4(iface.Flags, addrs) {
			sources = append(sources, probeSource{Interface: iface.Name, IP: ip})
		}
	}
	return sources, nil
}

// sendProbe sends one probe datagram to dst from src. A nil src.IP lets the
// kernel choose an ephemeral local address.
func sendProbe(ctx context.Context, src probeSource, dst *net.UDPAddr) error {
	local := ":0"
	if src.IP != nil {
		local = net.JoinHostPort(src.IP.String(), "0")
	}

	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp4", local)
	if err != nil {
		return &SourceError{Interface: src.Interface, Source: src.IP, Err: err}
	}
	defer pc.Close()

	payload := protocol.ProbePayload()
	if _, err := pc.WriteTo(payload, dst); err != nil {
		return &SourceError{Interface: src.Interface, Source: src.IP, Err: err}
	}
	logging.LogDatagram("sent", dst.String(), payload)
	return nil
}

// broadcastProbe sends the probe according to mode and returns a warning
// describing any failed sends, or nil when every send succeeded.
func broadcastProbe(ctx context.Context, mode SendMode, dst *net.UDPAddr) *SendWarning {
	var sources []probeSource
	if mode == SendPerInterface {
		found, err := localProbeSources()
		if err != nil {
			logging.Warn("Interface enumeration failed, falling back to a single broadcast", zap.Error(err))
		}
		sources = found
		if len(sources) == 0 {
			logging.Debug("No IPv4 interface is up, falling back to a single broadcast")
		}
	}
	if len(sources) == 0 {
		sources = []probeSource{{}}
	}

	var errs error
	sent := 0
	for _, src := range sources {
		if err := sendProbe(ctx, src, dst); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sent++
	}

	if errs == nil {
		return nil
	}
	return &SendWarning{Attempted: len(sources), Sent: sent, Err: errs}
}
