// Package responder implements the reply side of lanprobe discovery.
//
// A Responder binds the discovery port and answers every "DISCOVERY" probe
// with an "ACK" datagram sent to the prober's address on the reply port
// (the discovery port unless configured otherwise). Any other payload is
// ignored. Optionally the responder also advertises itself over mDNS as
// "_lanprobe._udp" so that probers on networks that drop broadcasts can
// still find it.
//
// # Usage Example
//
//	r := responder.New(9999)
//	r.Advertise = true
//	if err := r.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Serve blocks until ctx is cancelled; cancellation is not an error.
package responder
