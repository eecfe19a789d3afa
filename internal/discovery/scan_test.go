package discovery

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/lanprobe/internal/protocol"
	"github.com/muurk/lanprobe/internal/responder"
)

// loopbackScanner aims the scanner's probes at a loopback responder that
// replies to the scanner's port.
func loopbackScanner(t *testing.T) (*Scanner, *responder.Responder) {
	t.Helper()
	port := freePort(t)

	r := responder.New(0)
	r.Host = "127.0.0.1"
	r.ReplyPort = port

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	select {
	case <-r.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("responder did not start")
	}

	s := NewScanner()
	s.Port = port
	s.Timeout = 300 * time.Millisecond
	s.newClient = func(p int) *Client {
		return loopbackClient(p, r.Addr().Port)
	}
	return s, r
}

func TestNewScanner(t *testing.T) {
	s := NewScanner()
	assert.Equal(t, protocol.DefaultPort, s.Port)
	assert.Equal(t, DefaultScanTimeout, s.Timeout)
	assert.Equal(t, SendPerInterface, s.Mode)
	assert.False(t, s.MDNS)
}

func TestScanner_FindsResponder(t *testing.T) {
	s, r := loopbackScanner(t)

	var mu sync.Mutex
	var firsts []string
	s.OnDevice = func(d *Device) {
		mu.Lock()
		firsts = append(firsts, d.IP)
		mu.Unlock()
	}

	start := time.Now()
	devices, err := s.ScanForDevices()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), s.Timeout, "scan should run for the whole window")

	require.Len(t, devices, 1)
	assert.Equal(t, "127.0.0.1", devices[0].IP)
	assert.Equal(t, 1, devices[0].Replies)
	assert.Equal(t, MethodAck, devices[0].Methods)
	assert.Equal(t, uint64(1), r.Stats().Probes)

	mu.Lock()
	assert.Equal(t, []string{"127.0.0.1"}, firsts)
	mu.Unlock()
}

func TestScanner_DuplicateRepliesCounted(t *testing.T) {
	s, _ := loopbackScanner(t)
	s.Timeout = 500 * time.Millisecond

	go func() {
		time.Sleep(100 * time.Millisecond)
		conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: loopback, Port: s.Port})
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte(protocol.Ack))
	}()

	devices, err := s.ScanForDevices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, 2, devices[0].Replies)
}

func TestScanner_CancelledEarly(t *testing.T) {
	s, _ := loopbackScanner(t)
	s.Timeout = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	devices, err := s.ScanForDevicesWithContext(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, devices, 1)
}

func TestScanner_AlreadyCancelled(t *testing.T) {
	s, _ := loopbackScanner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	devices, err := s.ScanForDevicesWithContext(ctx)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestScanner_BindFailure(t *testing.T) {
	s, _ := loopbackScanner(t)

	blocker := NewClient(s.Port)
	blocker.Mode = SendSingle
	blocker.BroadcastIP = loopback
	blocker.probePort = freePort(t)
	require.NoError(t, blocker.Start(context.Background(), nil))
	defer blocker.Close()

	_, err := s.ScanForDevices()
	require.Error(t, err)
	assert.True(t, IsBindError(err))
}

func TestScanner_WaitForAddress(t *testing.T) {
	s, _ := loopbackScanner(t)
	s.Timeout = 2 * time.Second

	d, err := s.WaitForAddress(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", d.IP)
}

func TestScanner_WaitForAddressTimeout(t *testing.T) {
	s, _ := loopbackScanner(t)
	s.Timeout = 200 * time.Millisecond

	_, err := s.WaitForAddress(context.Background(), "10.0.0.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not answer")
}
