package session

import (
	"context"
	"errors"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/manualrtc/internal/transport"
	"github.com/1ureka/manualrtc/internal/util"
)

// EventKind identifies what a transport callback reported.
type EventKind int

const (
	StateChanged EventKind = iota + 1
	GatheringChanged
	ChannelOpened
	ChannelClosed
	MessageReceived
)

func (k EventKind) String() string {
	switch k {
	case StateChanged:
		return "state-changed"
	case GatheringChanged:
		return "gathering-changed"
	case ChannelOpened:
		return "channel-opened"
	case ChannelClosed:
		return "channel-closed"
	case MessageReceived:
		return "message-received"
	default:
		return "unknown"
	}
}

// Event is one transport notification. Only the fields relevant to Kind are
// set.
type Event struct {
	Kind      EventKind
	State     webrtc.PeerConnectionState
	Gathering webrtc.ICEGatheringState
	Channel   transport.Channel
	Message   Message
	Err       error
}

// Handler processes one event on the dispatch goroutine.
type Handler func(Event)

// Handle registers h for kind, replacing any earlier handler. A nil h removes
// the handler, so events of that kind are dropped.
func (s *Session) Handle(kind EventKind, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.handlers, kind)
		return
	}
	s.handlers[kind] = h
}

func (s *Session) handler(kind EventKind) Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[kind]
}

func (s *Session) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// emit queues ev for dispatch. Events posted after shutdown are dropped.
func (s *Session) emit(ev Event) {
	ctx := s.context()
	if ctx.Err() != nil {
		return
	}
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// dispatch delivers queued events one at a time until ctx is done. A
// ChannelClosed event stops the channel's send loop before any handler runs.
func (s *Session) dispatch(ctx context.Context) {
	for {
		select {
		case ev := <-s.events:
			if ev.Kind == ChannelClosed {
				s.stopSendLoop(ev.Channel)
			}
			if h := s.handler(ev.Kind); h != nil {
				h(ev)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) registerDefaults() {
	s.Handle(StateChanged, s.onStateChanged)
	s.Handle(GatheringChanged, func(ev Event) {
		util.LogDebug("ICE gathering state: %s", ev.Gathering)
	})
	s.Handle(ChannelOpened, s.onChannelOpened)
	s.Handle(ChannelClosed, func(ev Event) {
		util.LogInfo("DataChannel '%s' closed", ev.Channel.Label())
	})
	s.Handle(MessageReceived, s.onMessage)
}

func (s *Session) onStateChanged(ev Event) {
	util.LogInfo("State: %s", ev.State)
	if ev.State == webrtc.PeerConnectionStateFailed {
		s.signalDone()
	}
}

func (s *Session) onChannelOpened(ev Event) {
	ch := ev.Channel
	if id := ch.ID(); id != nil {
		util.LogSuccess("DataChannel '%s'-'%d' open", ch.Label(), *id)
	} else {
		util.LogSuccess("DataChannel '%s' open", ch.Label())
	}
	s.startSendLoop(ch)
}

func (s *Session) onMessage(ev Event) {
	var decodeErr *DecodeError
	if errors.As(ev.Err, &decodeErr) {
		util.Stats.AddDecodeErr()
		util.LogWarning("%v", decodeErr)
		return
	}
	util.Stats.AddRecv(len(ev.Message.Text))
	util.LogInfo("Message from DataChannel '%s': '%s'", ev.Message.Channel, ev.Message.Text)
}
