package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Method records how a device was found
type Method uint8

const (
	// MethodAck means the device answered a broadcast probe with "ACK"
	MethodAck Method = 1 << iota
	// MethodMDNS means the device advertised itself over mDNS
	MethodMDNS
)

// String returns a comma-separated list of the methods set
func (m Method) String() string {
	var parts []string
	if m&MethodAck != 0 {
		parts = append(parts, "ack")
	}
	if m&MethodMDNS != 0 {
		parts = append(parts, "mdns")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Device is a responder seen during a scan. The Client itself keeps no
// devices; Device is built by callers such as Scanner.
type Device struct {
	// IP is the responder's address as reported to the callback
	IP string

	// Port is the advertised service port (mDNS only, 0 otherwise)
	Port int

	// Hostname and Instance come from the mDNS advertisement, if any
	Hostname string
	Instance string

	// Metadata holds mDNS TXT records as key/value pairs
	Metadata map[string]string

	// Methods records how the device was seen
	Methods Method

	// Replies counts accepted ACK datagrams; duplicates are not collapsed
	Replies int

	// FirstSeen and LastSeen bound the sightings during the scan
	FirstSeen time.Time
	LastSeen  time.Time
}

// String returns a human-readable representation of the device
func (d *Device) String() string {
	if d.Hostname != "" {
		return fmt.Sprintf("%s (%s) via %s", d.IP, d.Hostname, d.Methods)
	}
	return fmt.Sprintf("%s via %s", d.IP, d.Methods)
}

// Address returns IP:Port when a port is known, otherwise the bare IP
func (d *Device) Address() string {
	if d.Port == 0 {
		return d.IP
	}
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

func (d *Device) clone() *Device {
	cp := *d
	if d.Metadata != nil {
		cp.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// deviceSet accumulates sightings keyed by IP in first-seen order
type deviceSet struct {
	mu    sync.Mutex
	byIP  map[string]*Device
	order []string
}

func newDeviceSet() *deviceSet {
	return &deviceSet{byIP: make(map[string]*Device)}
}

// recordAck counts one ACK from ip and reports whether it was the first
// sighting of that address.
func (s *deviceSet) recordAck(ip string, at time.Time) (*Device, bool) {
	return s.merge(&Device{IP: ip, Methods: MethodAck, Replies: 1, FirstSeen: at, LastSeen: at})
}

// merge folds an observation into the set and returns a copy of the result
func (s *deviceSet) merge(obs *Device) (*Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byIP[obs.IP]
	if !ok {
		d := obs.clone()
		s.byIP[obs.IP] = d
		s.order = append(s.order, obs.IP)
		return d.clone(), true
	}

	existing.Methods |= obs.Methods
	existing.Replies += obs.Replies
	if obs.LastSeen.After(existing.LastSeen) {
		existing.LastSeen = obs.LastSeen
	}
	if existing.Hostname == "" {
		existing.Hostname = obs.Hostname
	}
	if existing.Instance == "" {
		existing.Instance = obs.Instance
	}
	if existing.Port == 0 {
		existing.Port = obs.Port
	}
	for k, v := range obs.Metadata {
		if existing.Metadata == nil {
			existing.Metadata = make(map[string]string)
		}
		existing.Metadata[k] = v
	}
	return existing.clone(), false
}

func (s *deviceSet) snapshot() []*Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Device, 0, len(s.order))
	for _, ip := range s.order {
		out = append(out, s.byIP[ip].clone())
	}
	return out
}
