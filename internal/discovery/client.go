package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/lanprobe/internal/logging"
	"github.com/muurk/lanprobe/internal/protocol"
)

// ErrClientClosed is returned by Start after Close
var ErrClientClosed = errors.New("discovery client is closed")

// transientBackoff is the pause after a receive error that did not close the socket
const transientBackoff = 10 * time.Millisecond

// Client broadcasts discovery probes and reports the address of every peer
// that answers with an acknowledgement.
//
// A Client owns at most one session at a time. Start always tears down the
// previous session (socket closed, receive loop exited) before binding again.
// The exported fields must be set before Start and not changed while a
// session is active.
type Client struct {
	// Mode selects how probes are broadcast (default SendPerInterface)
	Mode SendMode

	// BufferSize bounds a single received datagram. Larger datagrams are
	// treated as ordinary non-ACK traffic. Zero selects protocol.DefaultBufferSize.
	BufferSize int

	// BroadcastIP is the probe destination. Nil means 255.255.255.255.
	BroadcastIP net.IP

	// OnSendWarning, if set, receives non-fatal probe send failures.
	// It is called synchronously from Start.
	OnSendWarning func(*SendWarning)

	port int

	// probePort redirects probes to a port other than the receive port
	probePort int

	// lifecycle serializes Start, Stop and Close
	lifecycle sync.Mutex

	// mu guards session and closed
	mu      sync.Mutex
	session *session
	closed  bool
}

// session is the live state of one discovery attempt
type session struct {
	id     string
	conn   *net.UDPConn
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// release cancels the session and closes its socket exactly once
func (s *session) release() {
	s.once.Do(func() {
		s.cancel()
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logging.Debug("Closing discovery socket failed",
				zap.String("session_id", s.id),
				zap.Error(err),
			)
		}
		logging.LogSession(s.id, "released")
	})
}

// NewClient creates a client for the given discovery port. No I/O is
// performed until Start. Port 0 binds an ephemeral port, which is mostly
// useful together with LocalAddr in tests.
func NewClient(port int) *Client {
	return &Client{
		Mode:       SendPerInterface,
		BufferSize: protocol.DefaultBufferSize,
		port:       port,
	}
}

// Port returns the discovery port the client was created with
func (c *Client) Port() int {
	return c.port
}

// Start begins a discovery session: any previous session is stopped, the
// receive socket is bound to the discovery port, the probe is broadcast and
// a background receive loop is launched. Start returns as soon as the loop is
// running; it imposes no timeout of its own.
//
// onDevice is invoked with the sender's IP address (no port) for every
// datagram that is exactly "ACK", in arrival order and without deduplication.
// It runs on the session's background goroutine; callers that update shared
// state must synchronize themselves. onDevice must not call Start, Stop or
// Close synchronously.
//
// Cancelling ctx ends the session exactly like Stop. A ctx that is already
// done yields a session that ends at once: Start binds nothing and returns nil. The only error returned
// for a failed bind is *BindError; probe send failures are reported through
// OnSendWarning and never fail Start.
func (c *Client) Start(ctx context.Context, onDevice func(address string)) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopLocked()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClientClosed
	}
	if ctx.Err() != nil {
		// already over: nothing is bound and no loop runs
		logging.Debug("Discovery context already done, session ended before bind",
			zap.Int("port", c.port),
			zap.Error(ctx.Err()),
		)
		return nil
	}

	sctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()

	var lc net.ListenConfig
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", c.port))
	if err != nil {
		cancel()
		bindErr := newBindError(c.port, err)
		logging.Warn("Failed to bind discovery socket",
			zap.String("session_id", id),
			zap.Int("port", c.port),
			zap.Stringer("reason", bindErr.Reason),
			zap.Error(err),
		)
		return bindErr
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		cancel()
		_ = pc.Close()
		return fmt.Errorf("unexpected packet conn type %T", pc)
	}

	s := &session{
		id:     id,
		conn:   conn,
		ctx:    sctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	// Unblocks the pending read when the caller's context is cancelled.
	context.AfterFunc(sctx, s.release)

	boundPort := conn.LocalAddr().(*net.UDPAddr).Port
	logging.LogSession(id, "bound",
		zap.Int("port", boundPort),
		zap.Stringer("mode", c.Mode),
	)

	dst := c.probeDestination(boundPort)
	if warning := broadcastProbe(sctx, c.Mode, dst); warning != nil {
		logging.Warn("Probe broadcast partially failed",
			zap.String("session_id", id),
			zap.Int("attempted", warning.Attempted),
			zap.Int("sent", warning.Sent),
			zap.Error(warning.Err),
		)
		if c.OnSendWarning != nil {
			c.OnSendWarning(warning)
		}
	}
	logging.LogSession(id, "probe_sent", zap.Stringer("destination", dst))

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	go c.receive(s, onDevice)
	return nil
}

// Stop ends the active session, if any, and waits for its receive loop to
// exit. It is safe to call at any time and any number of times.
func (c *Client) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stopLocked()
}

// Close stops the active session and marks the client closed; later calls to
// Start return ErrClientClosed. Close is idempotent and always returns nil.
func (c *Client) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stopLocked()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Active reports whether a session is currently running
func (c *Client) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// SessionID returns the identifier of the active session, or "" when idle
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.id
}

// LocalAddr returns the bound receive address of the active session, or nil
func (c *Client) LocalAddr() *net.UDPAddr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	addr, _ := c.session.conn.LocalAddr().(*net.UDPAddr)
	return addr
}

func (c *Client) stopLocked() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s == nil {
		return
	}
	s.release()
	<-s.done
	logging.LogSession(s.id, "stopped")
}

func (c *Client) probeDestination(boundPort int) *net.UDPAddr {
	ip := c.BroadcastIP
	if ip == nil {
		ip = net.IPv4bcast
	}
	port := boundPort
	if c.probePort != 0 {
		port = c.probePort
	}
	return &net.UDPAddr{IP: ip, Port: port}
}

// receive runs the session's read loop until the session is cancelled or its
// socket goes away, then releases the session.
func (c *Client) receive(s *session, onDevice func(string)) {
	defer close(s.done)
	defer c.finish(s)

	buf := make([]byte, protocol.NormalizeBufferSize(c.BufferSize))
	for {
		n, from, err := s.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if s.ctx.Err() != nil || isSocketGone(err) {
				logging.LogSession(s.id, "receive_stopped", zap.Error(err))
				return
			}
			logging.Debug("Transient receive error",
				zap.String("session_id", s.id),
				zap.Error(err),
			)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(transientBackoff):
			}
			continue
		}
		if s.ctx.Err() != nil {
			return
		}

		payload := buf[:n]
		logging.LogDatagram("received", from.String(), payload)
		if protocol.Classify(payload, n == len(buf)) != protocol.KindAck {
			continue
		}

		address := from.Addr().Unmap().String()
		logging.Info("Device discovered",
			zap.String("session_id", s.id),
			zap.String("address", address),
		)
		if onDevice != nil {
			onDevice(address)
		}
	}
}

// finish releases a session whose loop exited and detaches it from the
// client unless Stop already did so.
func (c *Client) finish(s *session) {
	s.release()
	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	c.mu.Unlock()
}
