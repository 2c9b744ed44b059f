// Package config holds the CLI configuration for both executables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Role is fixed per executable.
type Role string

const (
	RoleOffer  Role = "offer"
	RoleAnswer Role = "answer"
)

// EnvPrefix is prepended to every environment override, e.g. MANUALRTC_STUN.
const EnvPrefix = "MANUALRTC"

// Default configuration values.
const (
	DefaultSTUN     = "stun:stun.l.google.com:19302"
	DefaultLabel    = "data"
	DefaultInterval = 5 * time.Second
)

// Flag names, shared by the cobra commands and viper keys.
const (
	FlagSTUN        = "stun"
	FlagLabel       = "label"
	FlagInterval    = "interval"
	FlagDebug       = "debug"
	FlagDisableMDNS = "disable-mdns"
	FlagListen      = "listen"
	FlagConnect     = "connect"
)

// Config stores everything a run needs.
type Config struct {
	Role        Role
	ICEServers  []string      // STUN URLs; empty gathers host candidates only
	Label       string        // offer: label of the created data channel
	Interval    time.Duration // period of the send loop
	Debug       bool
	DisableMDNS bool
	Listen      string // offer: rendezvous listen address instead of the console
	Connect     string // answer: rendezvous URL instead of the console
}

// RegisterFlags declares the flags understood by role on fs. Every flag is
// optional.
func RegisterFlags(fs *pflag.FlagSet, role Role) {
	fs.StringSlice(FlagSTUN, []string{DefaultSTUN}, "STUN server URLs (empty for host candidates only)")
	fs.Duration(FlagInterval, DefaultInterval, "Interval between messages sent on an open data channel")
	fs.Bool(FlagDebug, false, "Enable debug logging")
	fs.Bool(FlagDisableMDNS, false, "Gather plain host candidates instead of mDNS names")

	switch role {
	case RoleOffer:
		fs.String(FlagLabel, DefaultLabel, "Label of the data channel to create")
		fs.String(FlagListen, "", "Serve the offer over a WebSocket rendezvous on this address (e.g. :8080) instead of the console")
	case RoleAnswer:
		fs.String(FlagConnect, "", "Fetch the offer from a WebSocket rendezvous URL (ws://host:port/ws?pin=1234) instead of the console")
	}
}

// Load resolves the configuration for role with the following priority:
//  1. flags set on fs
//  2. MANUALRTC_* environment variables
//  3. defaults
func Load(role Role, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetDefault(FlagSTUN, []string{DefaultSTUN})
	v.SetDefault(FlagLabel, DefaultLabel)
	v.SetDefault(FlagInterval, DefaultInterval)

	cfg := &Config{
		Role:        role,
		ICEServers:  splitList(v.GetStringSlice(FlagSTUN)),
		Interval:    v.GetDuration(FlagInterval),
		Debug:       v.GetBool(FlagDebug),
		DisableMDNS: v.GetBool(FlagDisableMDNS),
	}

	switch role {
	case RoleOffer:
		cfg.Label = v.GetString(FlagLabel)
		cfg.Listen = v.GetString(FlagListen)
	case RoleAnswer:
		cfg.Connect = v.GetString(FlagConnect)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot run.
func (c *Config) Validate() error {
	switch c.Role {
	case RoleOffer, RoleAnswer:
	default:
		return fmt.Errorf("invalid role %q", c.Role)
	}

	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}

	for _, s := range c.ICEServers {
		if !strings.HasPrefix(s, "stun:") && !strings.HasPrefix(s, "stuns:") {
			return fmt.Errorf("invalid STUN server %q: must start with stun: or stuns:", s)
		}
	}

	if c.Role == RoleOffer && c.Label == "" {
		return fmt.Errorf("data channel label must not be empty")
	}
	if c.Role == RoleAnswer && c.Listen != "" {
		return fmt.Errorf("--%s is only valid for the offer role", FlagListen)
	}
	if c.Role == RoleOffer && c.Connect != "" {
		return fmt.Errorf("--%s is only valid for the answer role", FlagConnect)
	}

	return nil
}

// splitList flattens comma-separated entries (as given through the
// environment) and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
