package responder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/lanprobe/internal/logging"
	"github.com/muurk/lanprobe/internal/protocol"
)

// Responder answers discovery probes
type Responder struct {
	// Host is the local address to bind; empty binds every interface
	Host string

	// Port is the UDP port probes arrive on
	Port int

	// ReplyPort is where ACKs are sent on the prober's host. Zero means Port.
	ReplyPort int

	// Advertise registers an mDNS service for the lifetime of Serve
	Advertise bool

	// Instance is the mDNS instance name; defaults to the hostname
	Instance string

	// OnProbe, if set, is called for each probe before the ACK is sent
	OnProbe func(from netip.AddrPort)

	mu    sync.Mutex
	addr  *net.UDPAddr
	ready chan struct{}

	probes  atomic.Uint64
	replies atomic.Uint64
}

// Stats counts the traffic handled by a responder
type Stats struct {
	Probes  uint64
	Replies uint64
}

// New creates a responder listening on port and replying to the same port
func New(port int) *Responder {
	return &Responder{
		Port:  port,
		ready: make(chan struct{}),
	}
}

// Ready is closed once Serve has bound its socket
func (r *Responder) Ready() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready == nil {
		r.ready = make(chan struct{})
	}
	return r.ready
}

// Addr returns the bound address, or nil before Serve has bound
func (r *Responder) Addr() *net.UDPAddr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// Stats returns the probe and reply counters
func (r *Responder) Stats() Stats {
	return Stats{Probes: r.probes.Load(), Replies: r.replies.Load()}
}

// Serve binds the port and answers probes until ctx is cancelled
func (r *Responder) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort(r.Host, strconv.Itoa(r.Port)))
	if err != nil {
		return fmt.Errorf("failed to bind responder on port %d: %w", r.Port, err)
	}
	conn := pc.(*net.UDPConn)
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	local := conn.LocalAddr().(*net.UDPAddr)
	r.mu.Lock()
	r.addr = local
	if r.ready == nil {
		r.ready = make(chan struct{})
	}
	close(r.ready)
	r.mu.Unlock()

	replyPort := r.ReplyPort
	if replyPort == 0 {
		replyPort = local.Port
	}

	logging.Info("Responder listening",
		zap.Stringer("addr", local),
		zap.Int("reply_port", replyPort),
	)

	if r.Advertise {
		server, err := r.advertise(local.Port, replyPort)
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer server.Shutdown()
		}
	}

	buf := make([]byte, protocol.DefaultBufferSize)
	for {
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logging.Info("Responder stopped", zap.Stringer("addr", local))
				return nil
			}
			logging.Debug("Responder receive error", zap.Error(err))
			continue
		}

		payload := buf[:n]
		logging.LogDatagram("received", from.String(), payload)
		if protocol.Classify(payload, n == len(buf)) != protocol.KindProbe {
			continue
		}

		r.probes.Add(1)
		if r.OnProbe != nil {
			r.OnProbe(from)
		}

		to := netip.AddrPortFrom(from.Addr().Unmap(), uint16(replyPort))
		ack := protocol.AckPayload()
		if _, err := conn.WriteToUDPAddrPort(ack, to); err != nil {
			logging.Warn("Failed to send ACK",
				zap.Stringer("to", to),
				zap.Error(err),
			)
			continue
		}
		r.replies.Add(1)
		logging.LogDatagram("sent", to.String(), ack)
	}
}

func (r *Responder) advertise(port, replyPort int) (*zeroconf.Server, error) {
	instance := r.Instance
	if instance == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "lanprobe"
		}
		instance = host
	}

	txt := []string{
		"proto=" + protocol.Probe + "/" + protocol.Ack,
		"reply_port=" + strconv.Itoa(replyPort),
	}
	server, err := zeroconf.Register(instance, protocol.ServiceType, protocol.ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising responder over mDNS",
		zap.String("instance", instance),
		zap.String("service", protocol.ServiceType),
	)
	return server, nil
}
