// Package protocol defines the lanprobe discovery wire format.
//
// The exchange is two fixed ASCII literals carried in single UDP datagrams:
//
//   - Probe: "DISCOVERY", broadcast by a prober to the discovery port
//   - Ack:   "ACK", sent by a responder back to the prober on the same port
//
// There is no length prefix, version byte or structured encoding. A payload
// is only meaningful when it is byte-equal to one of the literals; anything
// else (including payloads that were truncated by the receive buffer or that
// contain non-ASCII bytes) is classified as KindOther and ignored by callers.
//
// # Usage Example
//
//	n, src, err := conn.ReadFromUDPAddrPort(buf)
//	if err != nil {
//	    return err
//	}
//	if protocol.Classify(buf[:n], n == len(buf)) == protocol.KindAck {
//	    fmt.Println("responder at", src.Addr())
//	}
package protocol
