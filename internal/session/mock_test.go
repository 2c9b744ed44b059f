package session

import (
	"bytes"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/manualrtc/internal/transport"
)

// Compile-time interface checks.
var (
	_ transport.Peer    = (*mockPeer)(nil)
	_ transport.Channel = (*mockChannel)(nil)
)

// mockPeer records every call. Gathering completes right after
// SetLocalDescription unless manualGather is set; the local description only
// becomes readable once gathering has completed.
type mockPeer struct {
	mu    sync.Mutex
	calls []string

	manualGather bool
	gathered     chan struct{}
	gatherOnce   sync.Once
	pending      webrtc.SessionDescription
	local        *webrtc.SessionDescription
	remote       *webrtc.SessionDescription

	channel *mockChannel

	onState  func(webrtc.PeerConnectionState)
	onGather func(webrtc.ICEGatheringState)
	onDC     func(transport.Channel)

	closed chan struct{}
}

func newMockPeer() *mockPeer {
	return &mockPeer{
		gathered: make(chan struct{}),
		channel:  newMockChannel("data"),
		closed:   make(chan struct{}),
	}
}

func (p *mockPeer) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

// Calls returns a copy of the recorded call log.
func (p *mockPeer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *mockPeer) called(call string) int {
	for i, c := range p.Calls() {
		if c == call {
			return i
		}
	}
	return -1
}

func (p *mockPeer) CreateOffer() (webrtc.SessionDescription, error) {
	p.record("CreateOffer")
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0\r\ns=offer\r\n"}, nil
}

func (p *mockPeer) CreateAnswer() (webrtc.SessionDescription, error) {
	p.record("CreateAnswer")
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0\r\ns=answer\r\n"}, nil
}

func (p *mockPeer) SetLocalDescription(desc webrtc.SessionDescription) error {
	p.record("SetLocalDescription")
	p.mu.Lock()
	p.pending = desc
	manual := p.manualGather
	p.mu.Unlock()

	if !manual {
		go p.completeGathering()
	}
	return nil
}

func (p *mockPeer) SetRemoteDescription(desc webrtc.SessionDescription) error {
	p.record("SetRemoteDescription")
	p.mu.Lock()
	p.remote = &desc
	p.mu.Unlock()
	return nil
}

func (p *mockPeer) Remote() *webrtc.SessionDescription {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remote
}

func (p *mockPeer) GatheringComplete() <-chan struct{} {
	p.record("GatheringComplete")
	return p.gathered
}

// completeGathering appends a candidate to the pending description and
// publishes it as the local description.
func (p *mockPeer) completeGathering() {
	p.gatherOnce.Do(func() {
		p.mu.Lock()
		local := p.pending
		local.SDP += "a=candidate:1 1 udp 2130706431 10.0.0.1 5000 typ host\r\n"
		p.local = &local
		p.mu.Unlock()
		close(p.gathered)
	})
}

func (p *mockPeer) LocalDescription() *webrtc.SessionDescription {
	p.record("LocalDescription")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.local
}

func (p *mockPeer) CreateDataChannel(label string) (transport.Channel, error) {
	p.record("CreateDataChannel")
	p.channel.label = label
	return p.channel, nil
}

func (p *mockPeer) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	p.mu.Lock()
	p.onState = fn
	p.mu.Unlock()
}

func (p *mockPeer) OnGatheringStateChange(fn func(webrtc.ICEGatheringState)) {
	p.mu.Lock()
	p.onGather = fn
	p.mu.Unlock()
}

func (p *mockPeer) OnDataChannel(fn func(transport.Channel)) {
	p.record("OnDataChannel")
	p.mu.Lock()
	p.onDC = fn
	p.mu.Unlock()
}

func (p *mockPeer) announce(ch transport.Channel) {
	p.mu.Lock()
	fn := p.onDC
	p.mu.Unlock()
	fn(ch)
}

func (p *mockPeer) fireState(state webrtc.PeerConnectionState) {
	p.mu.Lock()
	fn := p.onState
	p.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}

func (p *mockPeer) Close() error {
	p.record("Close")
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

// mockChannel captures sent text and lets tests inject inbound messages.
type mockChannel struct {
	label string
	id    uint16

	mu        sync.Mutex
	sent      []string
	failAfter int // SendText fails from this call on; 0 never fails
	onOpen    func()
	onClose   func()
	onMessage func([]byte)
}

var errSendFailed = errors.New("send failed")

func newMockChannel(label string) *mockChannel {
	return &mockChannel{label: label, id: 1}
}

func (c *mockChannel) Label() string { return c.label }
func (c *mockChannel) ID() *uint16   { return &c.id }
func (c *mockChannel) Close() error  { return nil }

func (c *mockChannel) OnOpen(fn func()) {
	c.mu.Lock()
	c.onOpen = fn
	c.mu.Unlock()
}

func (c *mockChannel) OnClose(fn func()) {
	c.mu.Lock()
	c.onClose = fn
	c.mu.Unlock()
}

func (c *mockChannel) OnMessage(fn func([]byte)) {
	c.mu.Lock()
	c.onMessage = fn
	c.mu.Unlock()
}

func (c *mockChannel) SendText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	if c.failAfter > 0 && len(c.sent) >= c.failAfter {
		return errSendFailed
	}
	return nil
}

func (c *mockChannel) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *mockChannel) open() {
	c.mu.Lock()
	fn := c.onOpen
	c.mu.Unlock()
	fn()
}

func (c *mockChannel) close() {
	c.mu.Lock()
	fn := c.onClose
	c.mu.Unlock()
	fn()
}

func (c *mockChannel) deliver(data []byte) {
	c.mu.Lock()
	fn := c.onMessage
	c.mu.Unlock()
	fn(data)
}

// syncBuffer is a bytes.Buffer safe for one writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
