package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide data channel message counter.
var Stats = &stats{}

type stats struct {
	MsgsSent   atomic.Int64 // messages pushed onto a data channel
	MsgsRecv   atomic.Int64 // messages delivered by a data channel
	BytesSent  atomic.Int64
	BytesRecv  atomic.Int64
	DecodeErrs atomic.Int64 // inbound payloads that were not valid UTF-8
}

func (s *stats) AddSent(n int) {
	s.MsgsSent.Add(1)
	s.BytesSent.Add(int64(n))
}

func (s *stats) AddRecv(n int) {
	s.MsgsRecv.Add(1)
	s.BytesRecv.Add(int64(n))
}

func (s *stats) AddDecodeErr() { s.DecodeErrs.Add(1) }

// Reset zeroes every counter.
func (s *stats) Reset() {
	s.MsgsSent.Store(0)
	s.MsgsRecv.Store(0)
	s.BytesSent.Store(0)
	s.BytesRecv.Store(0)
	s.DecodeErrs.Store(0)
}

// Summary returns a one-line description of the totals since start.
func (s *stats) Summary() string {
	return fmt.Sprintf("Sent: %d msg (%s) | Recv: %d msg (%s) | Bad: %d",
		s.MsgsSent.Load(), formatBytes(float64(s.BytesSent.Load())),
		s.MsgsRecv.Load(), formatBytes(float64(s.BytesRecv.Load())),
		s.DecodeErrs.Load(),
	)
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs message statistics every
// interval, skipping quiet periods. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var prevSent, prevRecv int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.MsgsSent.Load()
				recv := Stats.MsgsRecv.Load()

				if sent != prevSent || recv != prevRecv {
					pterm.DefaultLogger.Info(formatStats(sent-prevSent, recv-prevRecv, interval))
				}

				prevSent = sent
				prevRecv = recv

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats returns the per-period message counts for display in the logger.
func formatStats(sent, recv int64, period time.Duration) string {
	return fmt.Sprintf("Last %s: %3d↑ %3d↓ messages", period, sent, recv)
}
