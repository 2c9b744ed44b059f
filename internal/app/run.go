// Package app contains the top-level orchestration for the offer and answer
// executables.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pterm/pterm"

	"github.com/1ureka/manualrtc/internal/config"
	"github.com/1ureka/manualrtc/internal/session"
	"github.com/1ureka/manualrtc/internal/signaling"
	"github.com/1ureka/manualrtc/internal/transport"
	"github.com/1ureka/manualrtc/internal/util"
)

// statsInterval is the period of the message statistics reporter.
const statsInterval = 30 * time.Second

// Run executes one handshake for cfg.Role:
//  1. Create the peer transport
//  2. Pick the signaler: console (in/out), or the WebSocket rendezvous
//  3. Run the session until the connection fails or ctx is cancelled
func Run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	if cfg.Debug {
		util.EnableDebug()
	}

	// ── 1. Peer transport ──────────────────────────────────────────────
	peer, err := transport.New(transport.Options{
		ICEServers:  cfg.ICEServers,
		Debug:       cfg.Debug,
		DisableMDNS: cfg.DisableMDNS,
	})
	if err != nil {
		return fmt.Errorf("failed to create peer connection: %w", err)
	}

	// ── 2. Signaler ────────────────────────────────────────────────────
	sig, closeSig, err := newSignaler(cfg, in, out)
	if err != nil {
		_ = peer.Close()
		return err
	}
	defer closeSig()

	// ── 3. Session ─────────────────────────────────────────────────────
	s := session.New(peer, sig, session.Options{
		Role:          cfg.Role,
		Label:         cfg.Label,
		Interval:      cfg.Interval,
		StatsInterval: statsInterval,
	})
	return s.Run(ctx)
}

// newSignaler returns the signaler selected by cfg and a function releasing
// it.
func newSignaler(cfg *config.Config, in io.Reader, out io.Writer) (session.Signaler, func(), error) {
	switch {
	case cfg.Listen != "":
		srv, err := signaling.Listen(cfg.Listen)
		if err != nil {
			return nil, nil, err
		}
		showRendezvous(srv.Port(), srv.PIN())
		util.LogInfo("Waiting for the answer peer to connect...")

		relay := srv.Relay()
		return relay, func() { _ = relay.Close() }, nil

	case cfg.Connect != "":
		relay, err := signaling.Dial(cfg.Connect)
		if err != nil {
			return nil, nil, err
		}
		return relay, func() { _ = relay.Close() }, nil

	default:
		return signaling.NewConsole(in, out), func() {}, nil
	}
}

// showRendezvous prints the rendezvous port and PIN on stderr.
func showRendezvous(port int, pin string) {
	body := fmt.Sprintf("Port : %d\nPIN  : %s\n\nForward this port (e.g. VS Code Port Forwarding)\nand run: answer --connect <host>:%d?pin=%s", port, pin, port, pin)
	box := pterm.DefaultBox.WithTitle("WebSocket Rendezvous").Sprint(body)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, box)
	fmt.Fprintln(os.Stderr)
}
