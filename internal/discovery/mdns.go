package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/lanprobe/internal/protocol"
)

// BrowseResponders browses mDNS for responders advertising the lanprobe
// service and reports each entry until ctx is done. It is a complement to
// the broadcast probe for networks that filter broadcast traffic.
func BrowseResponders(ctx context.Context, onDevice func(*Device)) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if d := parseServiceEntry(entry); d != nil && onDevice != nil {
					onDevice(d)
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, protocol.ServiceType, protocol.ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	return nil
}

// parseServiceEntry converts a zeroconf entry to a Device.
// Returns nil when the entry carries no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	now := time.Now()
	return &Device{
		IP:        ip,
		Port:      entry.Port,
		Hostname:  entry.HostName,
		Instance:  entry.Instance,
		Metadata:  metadata,
		Methods:   MethodMDNS,
		FirstSeen: now,
		LastSeen:  now,
	}
}
