package transport

import (
	"fmt"
	"os"

	"github.com/pion/ice/v4"
	"github.com/pion/interceptor"
	"github.com/pion/logging"
	ptransport "github.com/pion/transport/v4"
	"github.com/pion/webrtc/v4"
)

// Options configures the pion engine behind a Transport.
type Options struct {
	// ICEServers lists STUN URLs. An empty list gathers host candidates only;
	// there is no TURN fallback.
	ICEServers []string

	// Debug raises pion's internal log level from warn to debug.
	Debug bool

	// DisableMDNS gathers plain host candidates instead of .local names.
	DisableMDNS bool

	// Net replaces the OS network stack, e.g. with a vnet for tests.
	Net ptransport.Net
}

// newAPI builds a webrtc.API with default codecs, the default interceptor set
// and a SettingEngine carrying the logger factory and network overrides.
func newAPI(opts Options) (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register default codecs: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, fmt.Errorf("register default interceptors: %w", err)
	}

	lf := logging.NewDefaultLoggerFactory()
	lf.Writer = os.Stderr
	lf.DefaultLogLevel = logging.LogLevelWarn
	if opts.Debug {
		lf.DefaultLogLevel = logging.LogLevelDebug
	}

	se := webrtc.SettingEngine{LoggerFactory: lf}
	if opts.DisableMDNS {
		se.SetICEMulticastDNSMode(ice.MulticastDNSModeDisabled)
	}
	if opts.Net != nil {
		se.SetNet(opts.Net)
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(se),
	), nil
}

// newPeerConnection creates a PeerConnection configured with the given STUN servers.
func newPeerConnection(api *webrtc.API, stunServers []string) (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{}
	if len(stunServers) > 0 {
		config.ICEServers = []webrtc.ICEServer{
			{URLs: stunServers},
		}
	}
	return api.NewPeerConnection(config)
}
