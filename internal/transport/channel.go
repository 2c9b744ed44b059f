package transport

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
)

const (
	highWaterMark = 256 * 1024 // block SendText when bufferedAmount exceeds this
	lowWaterMark  = 64 * 1024  // resume once bufferedAmount drops below this
)

// ErrChannelClosed is returned by SendText once the channel has closed.
var ErrChannelClosed = errors.New("data channel closed")

// DataChannel wraps a pion DataChannel with backpressure and a close signal
// that survives user OnClose registration.
type DataChannel struct {
	raw *webrtc.DataChannel

	drained chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

func newDataChannel(raw *webrtc.DataChannel) *DataChannel {
	c := &DataChannel{
		raw:     raw,
		drained: make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}

	raw.SetBufferedAmountLowThreshold(uint64(lowWaterMark))
	raw.OnBufferedAmountLow(func() {
		select {
		case c.drained <- struct{}{}:
		default:
		}
	})
	raw.OnClose(c.markClosed)

	return c
}

func (c *DataChannel) markClosed() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// SendText sends a text message, blocking while the send buffer is above the
// high water mark.
func (c *DataChannel) SendText(text string) error {
	if c.raw.BufferedAmount() > uint64(highWaterMark) {
		select {
		case <-c.drained:
		case <-c.closed:
			return ErrChannelClosed
		}
	}
	return c.raw.SendText(text)
}

// OnMessage registers a callback for every inbound message payload.
func (c *DataChannel) OnMessage(fn func([]byte)) {
	c.raw.OnMessage(func(msg webrtc.DataChannelMessage) {
		fn(msg.Data)
	})
}

// OnClose registers a callback fired when the channel closes.
func (c *DataChannel) OnClose(fn func()) {
	c.raw.OnClose(func() {
		c.markClosed()
		fn()
	})
}

func (c *DataChannel) OnOpen(fn func()) { c.raw.OnOpen(fn) }
func (c *DataChannel) Label() string    { return c.raw.Label() }
func (c *DataChannel) ID() *uint16      { return c.raw.ID() }
func (c *DataChannel) Close() error     { return c.raw.Close() }
