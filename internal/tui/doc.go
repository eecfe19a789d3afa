// Package tui implements the interactive discovery screen behind
// `lanprobe watch`.
//
// The screen shows the discovery port, a progress bar for the discovery
// window, the responders heard so far and a running log. Keys:
//
//	r      rescan (tears down the current session and probes again)
//	c      clear the device list and log
//	↑/↓    move through the device list
//	q      quit
//
// # Threading
//
// discovery.Client invokes its callback on a background goroutine. The
// callback never touches the model; it hands each address to a buffered
// channel that a tea.Cmd drains, so all state changes happen inside Update.
// The callback's send selects on the session context, so cancelling the
// session (rescan, timeout, quit) always unblocks it before Stop waits for
// the receive loop.
package tui
