package session

import (
	"context"
	"time"

	"github.com/pion/randutil"

	"github.com/1ureka/manualrtc/internal/transport"
	"github.com/1ureka/manualrtc/internal/util"
)

const (
	randomPayloadLen = 15
	alphaRunes       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var payloadRand = randutil.NewMathRandomGenerator()

func fixedPayload(text string) func() string {
	return func() string { return text }
}

func randomPayload() string {
	return payloadRand.GenerateString(randomPayloadLen, alphaRunes)
}

// startSendLoop runs a send loop for ch under its own cancellation, derived
// from the session context. A second open of the same channel is ignored.
func (s *Session) startSendLoop(ch transport.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.loops[ch]; running {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.loops[ch] = cancel
	go s.sendLoop(ctx, ch)
}

// stopSendLoop cancels the send loop of ch, if any.
func (s *Session) stopSendLoop(ch transport.Channel) {
	s.mu.Lock()
	cancel, ok := s.loops[ch]
	delete(s.loops, ch)
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

// sendLoop sends one payload per interval until a send fails or ctx is done.
// Failed sends are not retried.
func (s *Session) sendLoop(ctx context.Context, ch transport.Channel) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			text := s.opts.Payload()
			util.LogInfo("Sending '%s'", text)
			if err := ch.SendText(text); err != nil {
				util.LogWarning("Send on DataChannel '%s' failed, stopping: %v", ch.Label(), err)
				return
			}
			util.Stats.AddSent(len(text))
		case <-ctx.Done():
			return
		}
	}
}
