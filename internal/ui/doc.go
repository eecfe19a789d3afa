// Package ui renders the non-interactive output of lanprobe commands.
//
// Components follow a "print once" pattern: a command prints a Header, then
// streams device lines as replies arrive, then prints a device table and a
// Result box. Nothing here reads from the terminal; the interactive screen
// lives in internal/tui.
//
// # Components
//
//   - Header: command banner with ordered parameters
//   - Device lines and tables: one row per responder
//   - Result: success, failure or warning box with troubleshooting tips
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader(ui.NewHeader("Discovery", "lanprobe scan",
//	    ui.Param{Key: "Port", Value: "9999"}))
//	devices, err := scanner.ScanForDevicesWithContext(ctx)
//	p.PrintDeviceTable(devices)
//
// # Logging Integration
//
// zap output is silent unless LANPROBE_LOG_LEVEL is set, so these
// components own stdout during normal use.
package ui
