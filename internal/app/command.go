package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1ureka/manualrtc/internal/config"
)

// Version is overridden at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

var descriptions = map[config.Role]struct{ short, long string }{
	config.RoleOffer: {
		short: "Create a WebRTC offer and exchange it by copy/paste",
		long: `offer creates a data channel, prints a base64 session offer once ICE
gathering completes, then reads the answer pasted from the remote peer.
While connected it sends "ping" on the channel every interval.`,
	},
	config.RoleAnswer: {
		short: "Answer a pasted WebRTC offer",
		long: `answer reads a base64 session offer pasted from the remote peer, prints
the matching answer once ICE gathering completes, and exchanges messages
on the data channel the offerer opened.`,
	},
}

// NewCommand returns the root command of the executable for role. Every flag
// is optional; without flags the descriptors travel over stdin/stdout.
func NewCommand(role config.Role) *cobra.Command {
	desc := descriptions[role]

	cmd := &cobra.Command{
		Use:           string(role),
		Short:         desc.short,
		Long:          desc.long,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(role, cmd.Flags())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return Run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	config.RegisterFlags(cmd.Flags(), role)
	return cmd
}
