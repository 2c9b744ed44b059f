package signaling

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/pion/randutil"
)

const pinDigits = "0123456789"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the offer-side rendezvous: a WebSocket endpoint at /ws accepting
// exactly one answerer that knows the PIN.
type Server struct {
	pin      string
	listener net.Listener
	srv      *http.Server
	connCh   chan *websocket.Conn
	accepted atomic.Bool
}

// Listen starts a rendezvous server on addr (":0" picks a free port) guarded
// by a random 4-digit PIN.
func Listen(addr string) (*Server, error) {
	pin, err := randutil.GenerateCryptoRandomString(4, pinDigits)
	if err != nil {
		return nil, fmt.Errorf("generate PIN: %w", err)
	}
	return listen(addr, pin)
}

func listen(addr, pin string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start WS server: %w", err)
	}

	s := &Server{
		pin:      pin,
		listener: listener,
		connCh:   make(chan *websocket.Conn, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.srv = &http.Server{Handler: mux}

	go func() {
		_ = s.srv.Serve(listener)
	}()

	return s, nil
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// PIN returns the PIN the answerer must pass as ?pin=.
func (s *Server) PIN() string { return s.pin }

// Relay returns a Relay bound to the first answerer that connects.
func (s *Server) Relay() *Relay {
	return newRelay(s.waitForClient, s.Close)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("pin") != s.pin {
		http.Error(w, "Invalid PIN", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// Only accept the first client.
	if !s.accepted.CompareAndSwap(false, true) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected"))
		conn.Close()
		return
	}
	s.connCh <- conn
}

// waitForClient blocks until a client connects or ctx is cancelled.
func (s *Server) waitForClient(ctx context.Context) (*websocket.Conn, error) {
	select {
	case conn := <-s.connCh:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the listener. Established connections are left alone.
func (s *Server) Close() {
	_ = s.srv.Close()
}
