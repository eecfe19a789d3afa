package protocol

import (
	"bytes"
	"fmt"
)

// Wire literals
const (
	// Probe is the payload broadcast to solicit replies
	Probe = "DISCOVERY"
	// Ack is the payload a responder sends back
	Ack = "ACK"
)

const (
	// DefaultPort is the UDP port used for both probes and replies
	DefaultPort = 9999

	// DefaultBufferSize is the receive buffer used when none is configured
	DefaultBufferSize = 1024

	// MinBufferSize keeps the buffer strictly larger than either literal so
	// that a truncated read can never be mistaken for a literal.
	MinBufferSize = 16

	// MaxBufferSize is the largest UDP payload carried over IPv4
	MaxBufferSize = 65507
)

// mDNS service under which responders may advertise themselves
const (
	ServiceType   = "_lanprobe._udp"
	ServiceDomain = "local."
)

var (
	probeBytes = []byte(Probe)
	ackBytes   = []byte(Ack)
)

// Kind classifies an inbound datagram
type Kind int

const (
	// KindOther is any payload that is not exactly one of the literals
	KindOther Kind = iota
	// KindProbe is a "DISCOVERY" datagram
	KindProbe
	// KindAck is an "ACK" datagram
	KindAck
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindProbe:
		return "probe"
	case KindAck:
		return "ack"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Classify returns the kind of a received payload.
// truncated must be true when the read filled the whole receive buffer, in
// which case the datagram may have been cut short and is never a literal.
func Classify(payload []byte, truncated bool) Kind {
	if truncated || !isASCII(payload) {
		return KindOther
	}
	switch {
	case bytes.Equal(payload, ackBytes):
		return KindAck
	case bytes.Equal(payload, probeBytes):
		return KindProbe
	default:
		return KindOther
	}
}

// ProbePayload returns a fresh copy of the probe datagram
func ProbePayload() []byte {
	return []byte(Probe)
}

// AckPayload returns a fresh copy of the acknowledgement datagram
func AckPayload() []byte {
	return []byte(Ack)
}

// NormalizeBufferSize clamps a configured receive buffer size into
// [MinBufferSize, MaxBufferSize]. Zero or negative selects DefaultBufferSize.
func NormalizeBufferSize(n int) int {
	switch {
	case n <= 0:
		return DefaultBufferSize
	case n < MinBufferSize:
		return MinBufferSize
	case n > MaxBufferSize:
		return MaxBufferSize
	default:
		return n
	}
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c > 0x7f {
			return false
		}
	}
	return true
}
