package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/lanprobe/internal/discovery"
	"github.com/muurk/lanprobe/internal/ui"
)

var (
	scanFlags   discoveryFlags
	scanJSON    bool
	scanMDNS    bool
	scanWaitFor string
)

func init() {
	scanFlags.register(scanCmd)
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print devices as JSON")
	scanCmd.Flags().BoolVar(&scanMDNS, "mdns", false, "Also browse for responders advertising over mDNS")
	scanCmd.Flags().StringVar(&scanWaitFor, "wait-for", "", "Stop as soon as this IP address answers")

	rootCmd.AddCommand(scanCmd)
}

// scanCmd runs one discovery window and lists the responders
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Broadcast a discovery probe and list the hosts that answer",
	Long: `Broadcast "DISCOVERY" on the discovery port and list every host that
answers "ACK" before the timeout.

By default the probe is sent once per IPv4 interface so it reaches every
attached subnet. Use --mode single to send one probe to 255.255.255.255.`,
	Example: `  # Scan for 10 seconds on port 9999 (default)
  lanprobe scan

  # Quick scan on another port
  lanprobe scan --port 5000 --timeout 3

  # Machine-readable output
  lanprobe scan --json

  # Wait for one host to come up
  lanprobe scan --wait-for 192.168.1.20 --timeout 60`,
	RunE: runScan,
}

// deviceJSON is the --json form of a device
type deviceJSON struct {
	Address   string            `json:"address"`
	Port      int               `json:"port,omitempty"`
	Hostname  string            `json:"hostname,omitempty"`
	Instance  string            `json:"instance,omitempty"`
	Via       string            `json:"via"`
	Replies   int               `json:"replies"`
	FirstSeen time.Time         `json:"first_seen"`
	LastSeen  time.Time         `json:"last_seen"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func toDeviceJSON(d *discovery.Device) deviceJSON {
	return deviceJSON{
		Address:   d.IP,
		Port:      d.Port,
		Hostname:  d.Hostname,
		Instance:  d.Instance,
		Via:       d.Methods.String(),
		Replies:   d.Replies,
		FirstSeen: d.FirstSeen,
		LastSeen:  d.LastSeen,
		Metadata:  d.Metadata,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	settings, err := scanFlags.resolve(cmd, cfg.Discovery)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mdns") {
		settings.MDNS = scanMDNS
	}
	return scan(cmd, settings)
}

func scan(cmd *cobra.Command, settings discoverySettings) error {
	p := ui.NewPrinter(cmd.OutOrStdout())
	scanner := settings.newScanner()

	// OnDevice fires from the receive loop and the mDNS browser
	var printMu sync.Mutex
	if !scanJSON {
		p.PrintHeader(ui.NewHeader("Discovery", "lanprobe "+cmd.Name(),
			ui.Param{Key: "Port", Value: strconv.Itoa(settings.Port)},
			ui.Param{Key: "Mode", Value: settings.Mode.String()},
			ui.Param{Key: "Timeout", Value: effectiveTimeout(settings.Timeout).String()},
		))
		p.Newline()
		scanner.OnDevice = func(d *discovery.Device) {
			printMu.Lock()
			defer printMu.Unlock()
			p.PrintDevice(d.IP, d.FirstSeen)
		}
		scanner.OnSendWarning = func(w *discovery.SendWarning) {
			printMu.Lock()
			defer printMu.Unlock()
			p.PrintSendWarning(w)
		}
	}

	if scanWaitFor != "" {
		return waitFor(cmd, p, scanner, scanWaitFor, settings.Port)
	}

	started := time.Now()
	devices, err := scanner.ScanForDevicesWithContext(cmd.Context())
	if err != nil {
		if !scanJSON {
			p.PrintResult(ui.NewFailureResult("Could not listen for replies", err, ui.BindTroubleshooting(err)))
		}
		return err
	}

	if scanJSON {
		out := make([]deviceJSON, 0, len(devices))
		for _, d := range devices {
			out = append(out, toDeviceJSON(d))
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	p.Newline()
	if len(devices) == 0 {
		r := ui.NewWarningResult("No devices answered",
			ui.Param{Key: "Duration", Value: time.Since(started).Round(time.Millisecond).String()},
		)
		r.Troubleshooting = ui.NoReplyTroubleshooting(settings.Port)
		p.PrintResult(r)
		return nil
	}

	p.PrintDeviceTable(devices)
	p.Newline()
	p.PrintResult(ui.NewSuccessResult("Discovery complete",
		ui.Param{Key: "Devices", Value: strconv.Itoa(len(devices))},
		ui.Param{Key: "Duration", Value: time.Since(started).Round(time.Millisecond).String()},
	))
	return nil
}

func waitFor(cmd *cobra.Command, p *ui.Printer, scanner *discovery.Scanner, address string, port int) error {
	device, err := scanner.WaitForAddress(cmd.Context(), address)
	if err != nil {
		if !scanJSON {
			p.PrintResult(waitFailure(err, address, port))
		}
		return err
	}

	if scanJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toDeviceJSON(device))
	}
	p.PrintResult(ui.NewSuccessResult("Device answered",
		ui.Param{Key: "Address", Value: device.IP},
		ui.Param{Key: "At", Value: device.FirstSeen.Format(ui.TimeFormat)},
	))
	return nil
}

// waitFailure reports a failed --wait-for. Only a bind failure gets socket
// hints; anything else means the address stayed silent.
func waitFailure(err error, address string, port int) *ui.Result {
	if discovery.IsBindError(err) {
		return ui.NewFailureResult("Could not listen for replies", err, ui.BindTroubleshooting(err))
	}
	tips := append([]string{
		fmt.Sprintf("Check that %s is powered on and has network access", address),
	}, ui.NoReplyTroubleshooting(port)...)
	return ui.NewFailureResult("Device did not answer", err, tips)
}

func effectiveTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return discovery.DefaultScanTimeout
	}
	return d
}
