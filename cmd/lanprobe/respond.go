package main

import (
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/lanprobe/internal/protocol"
	"github.com/muurk/lanprobe/internal/responder"
	"github.com/muurk/lanprobe/internal/ui"
)

var (
	respondPort      int
	respondReplyPort int
	respondAdvertise bool
	respondInstance  string
	respondQuiet     bool
)

func init() {
	respondCmd.Flags().IntVar(&respondPort, "port", protocol.DefaultPort, "UDP port to listen for probes on")
	respondCmd.Flags().IntVar(&respondReplyPort, "reply-port", 0, "Port ACKs are sent to (default: same as --port)")
	respondCmd.Flags().BoolVar(&respondAdvertise, "advertise", false, "Advertise this responder over mDNS")
	respondCmd.Flags().StringVar(&respondInstance, "instance", "", "mDNS instance name (default: hostname)")
	respondCmd.Flags().BoolVarP(&respondQuiet, "quiet", "q", false, "Do not print each probe")

	rootCmd.AddCommand(respondCmd)
}

// respondCmd answers discovery probes from this host
var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Answer discovery probes with ACK",
	Long: `Listen on the discovery port and answer every "DISCOVERY" datagram with
"ACK", sent back to the prober's address on the reply port.

Runs until interrupted.`,
	Example: `  # Answer probes on the default port
  lanprobe respond

  # Advertise over mDNS as well
  lanprobe respond --advertise --instance lab-bench`,
	RunE: runRespond,
}

func runRespond(cmd *cobra.Command, args []string) error {
	prefs := cfg.Responder
	r := responder.New(prefs.Port)
	r.ReplyPort = prefs.ReplyPort
	r.Advertise = prefs.Advertise
	r.Instance = prefs.Instance

	flags := cmd.Flags()
	if flags.Changed("port") {
		r.Port = respondPort
	}
	if flags.Changed("reply-port") {
		r.ReplyPort = respondReplyPort
	}
	if flags.Changed("advertise") {
		r.Advertise = respondAdvertise
	}
	if flags.Changed("instance") {
		r.Instance = respondInstance
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	replyPort := r.ReplyPort
	if replyPort == 0 {
		replyPort = r.Port
	}
	p.PrintHeader(ui.NewHeader("Responder", "lanprobe respond",
		ui.Param{Key: "Port", Value: strconv.Itoa(r.Port)},
		ui.Param{Key: "Reply port", Value: strconv.Itoa(replyPort)},
		ui.Param{Key: "mDNS", Value: strconv.FormatBool(r.Advertise)},
	))

	if !respondQuiet {
		var mu sync.Mutex
		r.OnProbe = func(from netip.AddrPort) {
			mu.Lock()
			defer mu.Unlock()
			p.PrintDevice(from.Addr().Unmap().String(), time.Now())
		}
	}

	if err := r.Serve(cmd.Context()); err != nil {
		p.PrintResult(ui.NewFailureResult("Could not start responder", err, ui.BindTroubleshooting(err)))
		return err
	}

	stats := r.Stats()
	p.PrintResult(ui.NewSuccessResult("Responder stopped",
		ui.Param{Key: "Probes", Value: strconv.FormatUint(stats.Probes, 10)},
		ui.Param{Key: "Replies", Value: strconv.FormatUint(stats.Replies, 10)},
	))
	return nil
}
