// Package transporttest runs pairs of real Transports on an in-process
// virtual network so handshakes can be tested without touching the host.
package transporttest

import (
	"testing"

	"github.com/pion/logging"
	"github.com/pion/transport/v4/vnet"

	"github.com/1ureka/manualrtc/internal/transport"
)

const (
	cidr = "10.0.0.0/24"
	ipA  = "10.0.0.1"
	ipB  = "10.0.0.2"
)

// NewPair starts a vnet router with two hosts and returns one Transport on
// each. Everything is torn down through t.Cleanup.
func NewPair(t testing.TB) (a, b *transport.Transport) {
	t.Helper()

	router, err := vnet.NewRouter(&vnet.RouterConfig{
		CIDR:          cidr,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	netA, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{ipA}})
	if err != nil {
		t.Fatalf("new net A: %v", err)
	}
	netB, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{ipB}})
	if err != nil {
		t.Fatalf("new net B: %v", err)
	}
	if err := router.AddNet(netA); err != nil {
		t.Fatalf("add net A: %v", err)
	}
	if err := router.AddNet(netB); err != nil {
		t.Fatalf("add net B: %v", err)
	}
	if err := router.Start(); err != nil {
		t.Fatalf("start router: %v", err)
	}
	t.Cleanup(func() { _ = router.Stop() })

	a, err = transport.New(transport.Options{Net: netA, DisableMDNS: true})
	if err != nil {
		t.Fatalf("new transport A: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	b, err = transport.New(transport.Options{Net: netB, DisableMDNS: true})
	if err != nil {
		t.Fatalf("new transport B: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	return a, b
}
