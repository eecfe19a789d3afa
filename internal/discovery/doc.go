// Package discovery finds lanprobe responders on the local network.
//
// A Client broadcasts the ASCII probe "DISCOVERY" on a fixed UDP port and
// reports the source address of every "ACK" reply to a caller-supplied
// callback. The Client keeps no list of devices and has no built-in timeout;
// both are caller concerns. Scanner is such a caller: it runs one session for
// a bounded window and accumulates Device values.
//
// # Discovery Process
//
//  1. Start stops any previous session and waits for it to quiesce
//  2. A UDP socket is bound to the discovery port (Go enables SO_BROADCAST
//     on datagram sockets by default)
//  3. The probe is sent from every up IPv4 interface (SendPerInterface) or
//     once from an ephemeral socket (SendSingle)
//  4. A background goroutine reads replies and invokes the callback for each
//     datagram that is exactly "ACK"
//  5. Stop, Close or cancelling the context closes the socket, which
//     unblocks the pending read and ends the loop
//
// # Usage Example
//
//	client := discovery.NewClient(9999)
//	defer client.Close()
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	err := client.Start(ctx, func(addr string) {
//	    fmt.Println("found", addr)
//	})
//	if err != nil {
//	    var bindErr *discovery.BindError
//	    if errors.As(err, &bindErr) {
//	        log.Fatalf("port %d unavailable: %s", bindErr.Port, bindErr.Reason)
//	    }
//	    log.Fatal(err)
//	}
//	<-ctx.Done()
//
// Or, for the common bounded scan:
//
//	devices, err := discovery.ScanForDevices(9999, 10*time.Second)
//
// # Error Handling
//
// Only *BindError (and a context that is already cancelled) fail Start.
// Probe send failures are aggregated into a *SendWarning. Receive errors are
// swallowed, except that a closed socket ends the loop quietly.
//
// # Thread Safety
//
// Start, Stop and Close may be called from any goroutine. The callback runs
// on the session's goroutine and must not call Start, Stop or Close itself.
package discovery
