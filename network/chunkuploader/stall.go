package chunkuploader

import (
	"context"
	"io"
	"sync/atomic"
	"time"
)

// countingReader counts the bytes handed to the transport.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// stallWatch cancels an attempt whose throughput stays below limit bytes per second for
// window. It runs for the whole attempt, waiting for the response included.
type stallWatch struct {
	limit    int64
	window   time.Duration
	interval time.Duration
	aborted  atomic.Bool
}

func newStallWatch(limit int64, window time.Duration) *stallWatch {
	interval := window / 4
	if interval > time.Second {
		interval = time.Second
	}
	return &stallWatch{limit: limit, window: window, interval: interval}
}

func (w *stallWatch) run(ctx context.Context, cancel context.CancelFunc, body *countingReader) {
	if w.window <= 0 || w.limit <= 0 || w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := time.Now()
	lastBytes := body.n.Load()
	slowSince := last

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sent := body.n.Load()
			elapsed := now.Sub(last).Seconds()
			if elapsed > 0 && float64(sent-lastBytes)/elapsed >= float64(w.limit) {
				slowSince = now
			}
			last, lastBytes = now, sent

			if now.Sub(slowSince) >= w.window {
				w.aborted.Store(true)
				cancel()
				return
			}
		}
	}
}

func (w *stallWatch) stalled() bool {
	return w.aborted.Load()
}
