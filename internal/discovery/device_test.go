package discovery

import (
	"testing"
	"time"
)

func TestDevice_String(t *testing.T) {
	d := &Device{IP: "10.0.0.5", Methods: MethodAck}
	if got := d.String(); got != "10.0.0.5 via ack" {
		t.Errorf("String() = %q", got)
	}

	d.Hostname = "kitchen.local."
	d.Methods |= MethodMDNS
	if got := d.String(); got != "10.0.0.5 (kitchen.local.) via ack,mdns" {
		t.Errorf("String() = %q", got)
	}
}

func TestDevice_Address(t *testing.T) {
	tests := []struct {
		name   string
		device *Device
		want   string
	}{
		{name: "ack only", device: &Device{IP: "10.0.0.5"}, want: "10.0.0.5"},
		{name: "with port", device: &Device{IP: "10.0.0.5", Port: 9999}, want: "10.0.0.5:9999"},
		{name: "ipv6", device: &Device{IP: "fe80::1", Port: 9999}, want: "[fe80::1]:9999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.Address(); got != tt.want {
				t.Errorf("Address() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMethod_String(t *testing.T) {
	if Method(0).String() != "none" {
		t.Errorf("Method(0).String() = %q", Method(0).String())
	}
	if MethodMDNS.String() != "mdns" {
		t.Errorf("MethodMDNS.String() = %q", MethodMDNS.String())
	}
}

func TestDeviceSet_CountsDuplicates(t *testing.T) {
	set := newDeviceSet()
	t0 := time.Now()

	d, first := set.recordAck("10.0.0.5", t0)
	if !first || d.Replies != 1 {
		t.Fatalf("first recordAck = (%+v, %v)", d, first)
	}
	d, first = set.recordAck("10.0.0.5", t0.Add(time.Second))
	if first {
		t.Error("second recordAck should not be a first sighting")
	}
	if d.Replies != 2 {
		t.Errorf("Replies = %d, want 2", d.Replies)
	}
	if !d.LastSeen.Equal(t0.Add(time.Second)) || !d.FirstSeen.Equal(t0) {
		t.Errorf("FirstSeen/LastSeen = %v/%v", d.FirstSeen, d.LastSeen)
	}

	set.recordAck("10.0.0.7", t0)
	snap := set.snapshot()
	if len(snap) != 2 || snap[0].IP != "10.0.0.5" || snap[1].IP != "10.0.0.7" {
		t.Errorf("snapshot() = %v, want first-seen order", snap)
	}
}

func TestDeviceSet_MergesMDNS(t *testing.T) {
	set := newDeviceSet()
	now := time.Now()
	set.recordAck("10.0.0.5", now)

	d, first := set.merge(&Device{
		IP:       "10.0.0.5",
		Port:     9999,
		Hostname: "kitchen.local.",
		Metadata: map[string]string{"reply_port": "9999"},
		Methods:  MethodMDNS,
		LastSeen: now,
	})
	if first {
		t.Error("merge into an existing address should not be a first sighting")
	}
	if d.Methods != MethodAck|MethodMDNS {
		t.Errorf("Methods = %v", d.Methods)
	}
	if d.Replies != 1 || d.Port != 9999 || d.Hostname != "kitchen.local." {
		t.Errorf("merged device = %+v", d)
	}

	// Returned values are copies.
	d.Metadata["reply_port"] = "1"
	if set.snapshot()[0].Metadata["reply_port"] != "9999" {
		t.Error("mutating a returned device changed the set")
	}
}
