// Package transport is the peer transport capability used by the signaling
// coordinator: a single PeerConnection and its data channels. ICE, DTLS and
// SCTP all live inside pion; this package only exposes what the handshake
// needs.
package transport

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// Peer is the connection handle the coordinator drives through the
// offer/answer lifecycle.
type Peer interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error

	// GatheringComplete returns a channel closed once ICE gathering has
	// finished. It must be obtained before SetLocalDescription.
	GatheringComplete() <-chan struct{}
	LocalDescription() *webrtc.SessionDescription

	CreateDataChannel(label string) (Channel, error)

	OnConnectionStateChange(fn func(webrtc.PeerConnectionState))
	OnGatheringStateChange(fn func(webrtc.ICEGatheringState))
	OnDataChannel(fn func(Channel))

	Close() error
}

// Channel is a single data channel.
type Channel interface {
	Label() string
	ID() *uint16
	OnOpen(fn func())
	OnClose(fn func())
	OnMessage(fn func(data []byte))
	SendText(text string) error
	Close() error
}

// Compile-time interface checks.
var (
	_ Peer    = (*Transport)(nil)
	_ Channel = (*DataChannel)(nil)
)

// Transport wraps a single pion PeerConnection.
type Transport struct {
	pc *webrtc.PeerConnection

	mu      sync.RWMutex
	pcState webrtc.PeerConnectionState
}

// New creates a Transport backed by a fresh PeerConnection. Codec and
// interceptor registration failures are returned here, before any signaling.
func New(opts Options) (*Transport, error) {
	api, err := newAPI(opts)
	if err != nil {
		return nil, err
	}

	pc, err := newPeerConnection(api, opts.ICEServers)
	if err != nil {
		return nil, err
	}

	return &Transport{
		pc:      pc,
		pcState: webrtc.PeerConnectionStateNew,
	}, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Close shuts down the PeerConnection and every data channel on it.
func (t *Transport) Close() error {
	return t.pc.Close()
}

// ConnectionState returns the last observed PeerConnection state.
func (t *Transport) ConnectionState() webrtc.PeerConnectionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pcState
}

// OnConnectionStateChange registers fn for PeerConnection state changes. The
// state is recorded before fn runs.
func (t *Transport) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	t.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		t.mu.Lock()
		t.pcState = state
		t.mu.Unlock()
		fn(state)
	})
}

// OnGatheringStateChange registers fn for ICE gathering state changes.
func (t *Transport) OnGatheringStateChange(fn func(webrtc.ICEGatheringState)) {
	t.pc.OnICEGatheringStateChange(fn)
}

// ---------------------------------------------------------------------------
// Signaling
// ---------------------------------------------------------------------------

// CreateOffer generates an SDP offer.
func (t *Transport) CreateOffer() (webrtc.SessionDescription, error) {
	return t.pc.CreateOffer(nil)
}

// CreateAnswer generates an SDP answer.
func (t *Transport) CreateAnswer() (webrtc.SessionDescription, error) {
	return t.pc.CreateAnswer(nil)
}

// SetLocalDescription applies the local SDP and starts gathering.
func (t *Transport) SetLocalDescription(desc webrtc.SessionDescription) error {
	return t.pc.SetLocalDescription(desc)
}

// SetRemoteDescription applies the remote SDP.
func (t *Transport) SetRemoteDescription(desc webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(desc)
}

// GatheringComplete returns a channel closed once ICE gathering finishes; take
// it before SetLocalDescription.
func (t *Transport) GatheringComplete() <-chan struct{} {
	return webrtc.GatheringCompletePromise(t.pc)
}

// LocalDescription returns the local SDP including every gathered candidate,
// or nil if none has been set.
func (t *Transport) LocalDescription() *webrtc.SessionDescription {
	return t.pc.LocalDescription()
}

// ---------------------------------------------------------------------------
// Data channels
// ---------------------------------------------------------------------------

// CreateDataChannel creates an ordered, reliable data channel.
func (t *Transport) CreateDataChannel(label string) (Channel, error) {
	raw, err := t.pc.CreateDataChannel(label, nil)
	if err != nil {
		return nil, err
	}
	return newDataChannel(raw), nil
}

// OnDataChannel registers fn for channels opened by the remote peer.
func (t *Transport) OnDataChannel(fn func(Channel)) {
	t.pc.OnDataChannel(func(raw *webrtc.DataChannel) {
		fn(newDataChannel(raw))
	})
}
