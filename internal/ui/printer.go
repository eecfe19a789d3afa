package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muurk/lanprobe/internal/discovery"
)

// Printer writes ui components to a writer
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer for w, or os.Stdout when w is nil
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Width returns the width used for boxes
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header
func (p *Printer) PrintHeader(h *Header) {
	p.Println(h.SetWidth(p.width).Render())
}

// PrintResult prints a result box
func (p *Printer) PrintResult(r *Result) {
	p.Println(r.SetWidth(p.width).Render())
}

// PrintDevice prints one live sighting
func (p *Printer) PrintDevice(address string, at time.Time) {
	p.Println(RenderDeviceLine(address, at))
}

// PrintDeviceTable prints a summary table of devices
func (p *Printer) PrintDeviceTable(devices []*discovery.Device) {
	p.Println(RenderDeviceTable(devices, p.width))
}

// PrintSendWarning prints a warning box for a partial probe send
func (p *Printer) PrintSendWarning(w *discovery.SendWarning) {
	r := NewWarningResult("Some probes were not sent",
		Param{Key: "Sent", Value: fmt.Sprintf("%d of %d", w.Sent, w.Attempted)},
	)
	for _, f := range w.Failures() {
		r.AddDetail("Failure", f.Error())
	}
	r.Troubleshooting = SendTroubleshooting(w)
	p.PrintResult(r)
}
