// Command answer is the answer side of a manual copy/paste WebRTC data channel
// handshake.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/1ureka/manualrtc/internal/app"
	"github.com/1ureka/manualrtc/internal/config"
	"github.com/1ureka/manualrtc/internal/util"
)

func main() {
	// Root context, cancelled on Ctrl+C or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewCommand(config.RoleAnswer).ExecuteContext(ctx); err != nil {
		util.LogError("%v", err)
		stop()
		os.Exit(1)
	}
}
