package signaling

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/manualrtc/internal/protocol"
)

// Relay exchanges descriptors over a single WebSocket connection that is
// established lazily on first Publish or Receive.
type Relay struct {
	connect func(ctx context.Context) (*websocket.Conn, error)
	onClose func()

	mu   sync.Mutex // guards conn
	conn *websocket.Conn

	wmu sync.Mutex // serializes writes
}

func newRelay(connect func(ctx context.Context) (*websocket.Conn, error), onClose func()) *Relay {
	return &Relay{connect: connect, onClose: onClose}
}

func (r *Relay) get(ctx context.Context) (*websocket.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return r.conn, nil
	}
	conn, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	r.conn = conn
	return conn, nil
}

// Publish sends desc as one frame.
func (r *Relay) Publish(ctx context.Context, desc webrtc.SessionDescription) error {
	conn, err := r.get(ctx)
	if err != nil {
		return err
	}

	encoded, err := protocol.Encode(desc)
	if err != nil {
		return err
	}

	r.wmu.Lock()
	defer r.wmu.Unlock()
	if err := conn.WriteJSON(message{Type: desc.Type.String(), Payload: encoded}); err != nil {
		return fmt.Errorf("send %s: %w", desc.Type, err)
	}
	return nil
}

// Receive waits for the next frame and decodes it as a descriptor of kind
// want. Cancelling ctx closes the connection.
func (r *Relay) Receive(ctx context.Context, want webrtc.SDPType) (webrtc.SessionDescription, error) {
	conn, err := r.get(ctx)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}

	type result struct {
		msg message
		err error
	}
	ch := make(chan result, 1)
	go func() {
		var msg message
		err := conn.ReadJSON(&msg)
		ch <- result{msg, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if websocket.IsCloseError(res.err, websocket.ClosePolicyViolation) {
				return webrtc.SessionDescription{}, fmt.Errorf("rendezvous refused: %w", res.err)
			}
			return webrtc.SessionDescription{}, fmt.Errorf("read %s: %w", want, res.err)
		}
		return protocol.DecodeAs(res.msg.Payload, want)
	case <-ctx.Done():
		conn.Close()
		return webrtc.SessionDescription{}, ctx.Err()
	}
}

// Close closes the connection and, on the offer side, the server.
func (r *Relay) Close() error {
	if r.onClose != nil {
		r.onClose()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}

	// Best effort: the remote side may already be gone.
	r.wmu.Lock()
	_ = r.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	r.wmu.Unlock()

	return r.conn.Close()
}
