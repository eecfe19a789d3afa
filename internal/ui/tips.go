package ui

import (
	"errors"
	"fmt"

	"github.com/muurk/lanprobe/internal/discovery"
)

// BindTroubleshooting returns hints for a failed bind, tailored to the reason
func BindTroubleshooting(err error) []string {
	var be *discovery.BindError
	if !errors.As(err, &be) {
		return []string{"Run with LANPROBE_LOG_LEVEL=debug for socket details"}
	}

	switch be.Reason {
	case discovery.BindReasonAddrInUse:
		return []string{
			fmt.Sprintf("Another program is bound to UDP port %d", be.Port),
			fmt.Sprintf("Find it with: ss -ulpn 'sport = :%d'", be.Port),
			"Stop any other lanprobe scan or respond running on this host",
			"Or pick a different port with --port",
		}
	case discovery.BindReasonPermission:
		return []string{
			"Ports below 1024 need elevated privileges",
			"Use a higher port with --port",
		}
	case discovery.BindReasonAddrNotAvailable:
		return []string{"Check that a network interface is up"}
	default:
		return []string{"Run with LANPROBE_LOG_LEVEL=debug for socket details"}
	}
}

// NoReplyTroubleshooting returns hints for a scan that heard nothing back
func NoReplyTroubleshooting(port int) []string {
	return []string{
		"Check that a responder is running: lanprobe respond",
		fmt.Sprintf("Check that UDP port %d is open in the firewall", port),
		"Broadcasts do not cross routers; the responder must share a subnet",
		"Try a longer --timeout",
	}
}

// SendTroubleshooting returns hints for a partial or failed probe send
func SendTroubleshooting(w *discovery.SendWarning) []string {
	tips := []string{"Replies may still arrive from reachable networks"}
	if w != nil && w.Sent == 0 {
		tips = append(tips,
			"No probe left this host; check that an interface has an IPv4 address",
			"Try --mode single",
		)
	}
	return tips
}
