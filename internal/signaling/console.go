// Package signaling relays session descriptions between the two peers, either
// by console copy/paste or through a one-shot WebSocket rendezvous.
package signaling

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/manualrtc/internal/protocol"
	"github.com/1ureka/manualrtc/internal/util"
)

// ErrNoInput is returned when the input ends before a descriptor was pasted.
var ErrNoInput = errors.New("no signaling input")

// Console exchanges descriptors through a line-oriented reader and writer,
// normally stdin and stdout. Out receives nothing but encoded descriptors.
type Console struct {
	in  *bufio.Reader
	out io.Writer

	mu sync.Mutex // serializes reads
}

// NewConsole returns a Console reading pasted lines from in and printing
// encoded descriptors to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Publish prints desc as one base64 line.
func (c *Console) Publish(ctx context.Context, desc webrtc.SessionDescription) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := protocol.Encode(desc)
	if err != nil {
		return err
	}

	util.LogSuccess("Copy the %s below and paste it into the remote peer", desc.Type)
	if _, err := fmt.Fprintln(c.out, encoded); err != nil {
		return fmt.Errorf("write %s: %w", desc.Type, err)
	}
	return nil
}

// Receive reads one pasted line and decodes it as a descriptor of kind want.
// Blank lines are skipped. A cancelled ctx unblocks the caller, but the read
// itself keeps waiting on the underlying reader.
func (c *Console) Receive(ctx context.Context, want webrtc.SDPType) (webrtc.SessionDescription, error) {
	util.LogInfo("Paste the %s from the remote peer", want)

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := c.readLine()
		ch <- result{line, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return webrtc.SessionDescription{}, r.err
		}
		return protocol.DecodeAs(r.line, want)
	case <-ctx.Done():
		return webrtc.SessionDescription{}, ctx.Err()
	}
}

func (c *Console) readLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		line, err := c.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		if err != nil {
			return "", fmt.Errorf("read signaling input: %w", err)
		}
	}
}
