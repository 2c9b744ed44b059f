// Package session drives one offer/answer handshake over a transport.Peer and
// keeps the resulting data channel busy until the connection fails or the
// operator interrupts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/manualrtc/internal/config"
	"github.com/1ureka/manualrtc/internal/transport"
	"github.com/1ureka/manualrtc/internal/util"
)

// ErrNoLocalDescription is returned when gathering completed but the peer has
// no local description to publish.
var ErrNoLocalDescription = errors.New("no local description after ICE gathering")

// eventQueueSize bounds the number of transport events waiting for dispatch.
const eventQueueSize = 64

// Signaler moves descriptors between the two peers.
type Signaler interface {
	Publish(ctx context.Context, desc webrtc.SessionDescription) error
	Receive(ctx context.Context, want webrtc.SDPType) (webrtc.SessionDescription, error)
}

// Options configures a Session. Zero values fall back to the defaults of the
// role.
type Options struct {
	Role     config.Role
	Label    string        // offer: data channel label
	Interval time.Duration // send loop period
	Payload  func() string // produces each outbound message

	// StatsInterval enables the periodic statistics reporter when positive.
	StatsInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Label == "" {
		o.Label = config.DefaultLabel
	}
	if o.Interval <= 0 {
		o.Interval = config.DefaultInterval
	}
	if o.Payload == nil {
		if o.Role == config.RoleAnswer {
			o.Payload = randomPayload
		} else {
			o.Payload = fixedPayload("ping")
		}
	}
	return o
}

// Session coordinates the signaling exchange for a single peer.
type Session struct {
	peer transport.Peer
	sig  Signaler
	opts Options

	events chan Event
	done   chan struct{} // single slot, first writer wins

	mu       sync.RWMutex
	handlers map[EventKind]Handler
	ctx      context.Context // session lifetime, set by Run
	loops    map[transport.Channel]context.CancelFunc
}

// New returns a Session for peer exchanging descriptors through sig.
func New(peer transport.Peer, sig Signaler, opts Options) *Session {
	s := &Session{
		peer:     peer,
		sig:      sig,
		opts:     opts.withDefaults(),
		events:   make(chan Event, eventQueueSize),
		done:     make(chan struct{}, 1),
		handlers: make(map[EventKind]Handler),
		ctx:      context.Background(),
		loops:    make(map[transport.Channel]context.CancelFunc),
	}
	s.registerDefaults()
	return s
}

// Run performs the handshake for the configured role, then blocks until the
// connection fails or ctx is cancelled. The peer is closed before Run returns.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	defer s.closePeer()
	defer cancel()

	go s.dispatch(ctx)

	s.peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.emit(Event{Kind: StateChanged, State: state})
	})
	s.peer.OnGatheringStateChange(func(state webrtc.ICEGatheringState) {
		s.emit(Event{Kind: GatheringChanged, Gathering: state})
	})

	var err error
	switch s.opts.Role {
	case config.RoleOffer:
		err = s.runOffer(ctx)
	case config.RoleAnswer:
		err = s.runAnswer(ctx)
	default:
		err = fmt.Errorf("unknown role %q", s.opts.Role)
	}

	if err != nil {
		if ctx.Err() != nil {
			util.LogWarning("Interrupted before the handshake completed")
			return nil
		}
		return err
	}

	util.LogSuccess("Signaling complete, waiting for the data channel")

	if s.opts.StatsInterval > 0 {
		util.StartStatsReporter(ctx, s.opts.StatsInterval)
	}

	select {
	case <-s.done:
		util.LogWarning("Peer connection failed")
	case <-ctx.Done():
		util.LogInfo("Interrupted, shutting down")
	}

	util.LogInfo("%s", util.Stats.Summary())
	return nil
}

// runOffer creates the data channel and offer, publishes the gathered offer,
// then applies the remote answer.
func (s *Session) runOffer(ctx context.Context) error {
	ch, err := s.peer.CreateDataChannel(s.opts.Label)
	if err != nil {
		return fmt.Errorf("create data channel %q: %w", s.opts.Label, err)
	}
	s.attach(ch)

	offer, err := s.peer.CreateOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}

	local, err := s.setLocalAndGather(ctx, offer)
	if err != nil {
		return err
	}

	if err := s.sig.Publish(ctx, local); err != nil {
		return fmt.Errorf("publish offer: %w", err)
	}

	answer, err := s.sig.Receive(ctx, webrtc.SDPTypeAnswer)
	if err != nil {
		return fmt.Errorf("receive answer: %w", err)
	}

	if err := s.peer.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote answer: %w", err)
	}
	return nil
}

// runAnswer waits for the remote offer, then publishes the gathered answer.
func (s *Session) runAnswer(ctx context.Context) error {
	s.peer.OnDataChannel(func(ch transport.Channel) {
		if id := ch.ID(); id != nil {
			util.LogInfo("New DataChannel '%s' %d", ch.Label(), *id)
		} else {
			util.LogInfo("New DataChannel '%s'", ch.Label())
		}
		s.attach(ch)
	})

	offer, err := s.sig.Receive(ctx, webrtc.SDPTypeOffer)
	if err != nil {
		return fmt.Errorf("receive offer: %w", err)
	}

	if err := s.peer.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("set remote offer: %w", err)
	}

	answer, err := s.peer.CreateAnswer()
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}

	local, err := s.setLocalAndGather(ctx, answer)
	if err != nil {
		return err
	}

	if err := s.sig.Publish(ctx, local); err != nil {
		return fmt.Errorf("publish answer: %w", err)
	}
	return nil
}

// setLocalAndGather applies desc and waits for ICE gathering to finish, so the
// returned description carries every candidate.
func (s *Session) setLocalAndGather(ctx context.Context, desc webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	gathered := s.peer.GatheringComplete()

	if err := s.peer.SetLocalDescription(desc); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set local %s: %w", desc.Type, err)
	}

	util.LogInfo("Gathering ICE candidates...")
	select {
	case <-gathered:
	case <-ctx.Done():
		return webrtc.SessionDescription{}, ctx.Err()
	}

	local := s.peer.LocalDescription()
	if local == nil {
		return webrtc.SessionDescription{}, ErrNoLocalDescription
	}
	return *local, nil
}

// attach routes channel callbacks into the event queue.
func (s *Session) attach(ch transport.Channel) {
	ch.OnOpen(func() {
		s.emit(Event{Kind: ChannelOpened, Channel: ch})
	})
	ch.OnClose(func() {
		s.emit(Event{Kind: ChannelClosed, Channel: ch})
	})
	ch.OnMessage(func(data []byte) {
		msg, err := decodeMessage(ch.Label(), data)
		s.emit(Event{Kind: MessageReceived, Channel: ch, Message: msg, Err: err})
	})
}

// signalDone fills the completion slot unless it is already full.
func (s *Session) signalDone() {
	select {
	case s.done <- struct{}{}:
	default:
	}
}

func (s *Session) closePeer() {
	if err := s.peer.Close(); err != nil {
		util.LogWarning("failed to close peer connection: %v", err)
	}
}
